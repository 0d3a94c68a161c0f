//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// MediaKind represents the type of media content attached to a post
// ENUM(photo,video,document,animation,audio,voice)
type MediaKind string
