package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Load replaces the collection with the task records read from r. The input
// must be a JSON array of task objects. On any error the store is left empty
// and the error is returned for the caller to log.
func (s *Store) Load(r io.Reader) error {
	records, err := decodeSnapshot(r)
	if err != nil {
		s.replace(nil)
		return err
	}
	s.replace(records)
	return nil
}

// LoadFile is Load over the file at path. A missing file yields an empty
// store and an error wrapping fs.ErrNotExist.
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		s.replace(nil)
		return fmt.Errorf("open task snapshot: %w", err)
	}
	defer f.Close()
	if err := s.Load(f); err != nil {
		return fmt.Errorf("load task snapshot %s: %w", path, err)
	}
	return nil
}

// Save writes every task, in list order, as an indented JSON array.
func (s *Store) Save(w io.Writer) error {
	records := s.List()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode task snapshot: %w", err)
	}
	return nil
}

// SaveFile writes the snapshot to a temporary file next to path and renames
// it into place, replacing any previous content.
func (s *Store) SaveFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := s.Save(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", path, err)
	}
	return nil
}

func decodeSnapshot(r io.Reader) ([]Task, error) {
	var raw []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode task snapshot: %w", err)
	}
	out := make([]Task, 0, len(raw))
	for i, rec := range raw {
		task, err := decodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("task record %d: %w", i, err)
		}
		out = append(out, task)
	}
	return out, nil
}

func decodeRecord(rec map[string]json.RawMessage) (Task, error) {
	if rec == nil {
		return Task{}, fmt.Errorf("record is null")
	}
	var (
		task Task
		err  error
	)
	if task.Title, err = stringField(rec, "title", true); err != nil {
		return Task{}, err
	}
	if task.Status, err = stringField(rec, "status", true); err != nil {
		return Task{}, err
	}
	if task.Description, err = stringField(rec, "description", false); err != nil {
		return Task{}, err
	}
	if task.ID, err = normalizeID(rec["id"]); err != nil {
		return Task{}, err
	}
	return task, nil
}

func stringField(rec map[string]json.RawMessage, key string, required bool) (string, error) {
	raw, ok := rec[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%s is required", key)
		}
		return "", nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil || isNull(raw) {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return v, nil
}

// normalizeID turns a stored id into its string form. Numbers keep their
// JSON text; an absent, null or empty id gets a new random one.
func normalizeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return uuid.NewString(), nil
	}
	switch {
	case raw[0] == '"':
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("id: %w", err)
		}
		if id == "" {
			return uuid.NewString(), nil
		}
		return id, nil
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("id: %w", err)
		}
		return n.String(), nil
	default:
		return "", fmt.Errorf("id must be a string or number")
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
