package model

import (
	"strings"
	"time"
)

// Tone selects the drafting voice.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneRelationship Tone = "relationship"
	ToneDirect       Tone = "direct"
)

// Tones lists the supported tones with their display labels.
var Tones = map[Tone]string{
	ToneProfessional: "Professional / Institutional",
	ToneRelationship: "Relationship-based / Warm",
	ToneDirect:       "Short & Direct",
}

// ParseTone maps a string to a Tone, falling back to professional.
func ParseTone(s string) Tone {
	t := Tone(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Tones[t]; ok {
		return t
	}
	return ToneProfessional
}

// ToneOrRaw canonicalizes a known tone and otherwise keeps s as written, so
// a drafts file never gains a tone it did not record.
func ToneOrRaw(s string) Tone {
	s = strings.TrimSpace(s)
	if t := Tone(strings.ToLower(s)); Tones[t] != "" {
		return t
	}
	return Tone(s)
}

// BrokerIdentity is the subset of a broker the drafting service needs.
type BrokerIdentity struct {
	Name          string `json:"broker_name"`
	Firm          string `json:"broker_firm"`
	Email         string `json:"broker_email"`
	Geography     string `json:"geography,omitempty"`
	IndustryFocus string `json:"industry_focus,omitempty"`
}

// EmailDraft is one drafted outreach message. Immutable once generated.
type EmailDraft struct {
	BrokerName  string    `json:"broker_name"`
	BrokerFirm  string    `json:"broker_firm"`
	BrokerEmail string    `json:"broker_email"`
	Subject     string    `json:"email_subject"`
	Body        string    `json:"email_body"`
	Tone        Tone      `json:"tone"`
	GeneratedAt time.Time `json:"generation_timestamp"`
}

// DraftColumns is the fixed column contract of the email drafts file.
var DraftColumns = []string{
	"broker_name",
	"broker_firm",
	"broker_email",
	"email_subject",
	"email_body",
	"tone",
	"generation_timestamp",
}

// Row returns the draft in DraftColumns order.
func (d EmailDraft) Row() []string {
	return []string{
		d.BrokerName,
		d.BrokerFirm,
		d.BrokerEmail,
		d.Subject,
		d.Body,
		string(d.Tone),
		d.GeneratedAt.Format(time.RFC3339),
	}
}
