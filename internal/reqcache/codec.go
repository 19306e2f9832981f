package reqcache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rohmanhakim/botlist-cache/pkg/timeutil"
)

// legacyAccessedLayout is the "YYYY-MM-DD HH:MM:SS.ffffff" local-time stamp
// older cache files carry on markup entries. Structured entries in those files
// carry fractional unix seconds instead.
const legacyAccessedLayout = "2006-01-02 15:04:05.999999999"

// entryDTO is the on-disk shape of one entry. Exactly one of HTML and Data is set.
type entryDTO struct {
	Accessed accessedAt      `json:"accessed"`
	HTML     *string         `json:"html,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// accessedAt always writes RFC 3339 UTC with second precision and reads
// RFC 3339, the legacy string layout or a numeric epoch.
type accessedAt time.Time

func (a accessedAt) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(a).UTC().Format(time.RFC3339))
}

func (a *accessedAt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("accessed timestamp is missing")
	}

	if b[0] != '"' {
		seconds, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("accessed timestamp %s is not a number: %w", b, err)
		}
		*a = accessedAt(timeutil.EpochSecondsToTime(seconds))
		return nil
	}

	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		*a = accessedAt(t.UTC().Truncate(time.Second))
		return nil
	}
	t, err := time.ParseInLocation(legacyAccessedLayout, raw, time.Local)
	if err != nil {
		return fmt.Errorf("accessed timestamp %q has an unknown layout", raw)
	}
	*a = accessedAt(t.UTC().Truncate(time.Second))
	return nil
}

func toDTO(entry Entry) entryDTO {
	dto := entryDTO{Accessed: accessedAt(entry.fetchedAt)}
	switch entry.kind {
	case KindMarkup:
		markup := entry.markup
		dto.HTML = &markup
	case KindStructured:
		dto.Data = entry.data
	}
	return dto
}

func fromDTO(identity string, dto entryDTO) (Entry, error) {
	fetchedAt := time.Time(dto.Accessed)
	if fetchedAt.IsZero() {
		return Entry{}, fmt.Errorf("entry %q has no accessed timestamp", identity)
	}
	switch {
	case dto.HTML != nil:
		return NewMarkupEntry(*dto.HTML, fetchedAt), nil
	case dto.Data != nil:
		return NewStructuredEntry(dto.Data, fetchedAt), nil
	default:
		return Entry{}, fmt.Errorf("entry %q has neither html nor data", identity)
	}
}

func encodeEntries(entries map[string]Entry) ([]byte, error) {
	dtos := make(map[string]entryDTO, len(entries))
	for identity, entry := range entries {
		dtos[identity] = toDTO(entry)
	}
	// map keys are written sorted, so equal stores produce equal files
	return json.Marshal(dtos)
}

func decodeEntries(content []byte) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("cache file is empty")
	}

	var dtos map[string]entryDTO
	if err := json.Unmarshal(content, &dtos); err != nil {
		return nil, fmt.Errorf("cache file is not a JSON object of entries: %w", err)
	}
	for identity, dto := range dtos {
		entry, err := fromDTO(identity, dto)
		if err != nil {
			return nil, err
		}
		entries[identity] = entry
	}
	return entries, nil
}
