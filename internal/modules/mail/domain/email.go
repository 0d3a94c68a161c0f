package domain

// Email is one outgoing message, ready for the SMTP dispatcher. Attachment
// paths point at files staged in the per-post working directory.
type Email struct {
	Subject         string
	HTMLBody        string
	AttachmentPaths []string
}
