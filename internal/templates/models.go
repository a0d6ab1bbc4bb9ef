package templates

import "time"

// User summarizes one registered identity for listings.
type User struct {
	Username  string
	FaceCount int
	CreatedAt time.Time
}

// VoiceTemplate is the stored voice factor: the mean-MFCC signature plus the
// passphrase spoken during enrollment.
type VoiceTemplate struct {
	Signature  []float64
	Passphrase string
}

// Health captures diagnostic information about the template database.
type Health struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalUsers       int
	Error            string
}
