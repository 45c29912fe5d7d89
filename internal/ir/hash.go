package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainSnapshot = "mestrack/snapshot/v1"
	DomainReport   = "mestrack/report/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotDigest identifies the logical content of a backup.
// ExportedAt is excluded so two exports of the same data share a digest.
func SnapshotDigest(s Snapshot) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"version":  s.Version,
		"events":   nonNilEvents(s.Events),
		"settings": s.Settings,
	})
	if err != nil {
		return "", fmt.Errorf("SnapshotDigest: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// ReportDigest hashes any derived report value (month results, summaries).
func ReportDigest(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ReportDigest: %w", err)
	}
	return hashWithDomain(DomainReport, canonical), nil
}

func nonNilEvents(events []Event) []Event {
	if events == nil {
		return []Event{}
	}
	return events
}
