package models

import "time"

// RelayedPost is an evicted pin rebuilt for delivery to a bulletin channel.
// It only lives for the duration of one migration.
type RelayedPost struct {
	MessageID   string
	AuthorTag   string // username as shown in the embed
	AuthorName  string // display name used for the webhook
	AvatarURL   string
	Content     string
	JumpURL     string
	Timestamp   time.Time
	Attachments []Attachment
}

// Attachment is a downloaded file held in transient storage.
type Attachment struct {
	Filename string
	Path     string
}
