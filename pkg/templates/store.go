// Package templates keeps a library of reusable G-code snippets in a bbolt
// file. Only a template's Code reaches the mutation pipeline, as an
// injection payload.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package templates

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"gcode-toolpath/pkg/errors"
	"gcode-toolpath/pkg/log"
)

// Purpose tags used by the built-in templates.
const (
	PurposeStart  = "start"
	PurposePause  = "pause"
	PurposeEnd    = "end"
	PurposeCustom = "custom"
)

// Template is one stored snippet.
type Template struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PrinterTag string    `json:"printerTag,omitempty"`
	PurposeTag string    `json:"purposeTag,omitempty"`
	Code       string    `json:"code"`
	Notes      string    `json:"notes,omitempty"`
	IsBuiltIn  bool      `json:"isBuiltIn"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

var bucketName = []byte("templates")

// Store is a template library backed by a bbolt database.
type Store struct {
	db     *bolt.DB
	path   string
	logger *log.Logger
}

// Open opens or creates the database at path and seeds the built-in
// templates that are missing.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTemplateStore, "unable to open template store").SetFile(path)
	}
	s := &Store{db: db, path: path, logger: log.GetLogger("templates")}

	seeded := 0
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		for _, t := range Builtins() {
			if b.Get([]byte(t.ID)) != nil {
				continue
			}
			if err := putTemplate(b, t); err != nil {
				return err
			}
			seeded++
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrTemplateStore, "unable to seed template store").SetFile(path)
	}
	s.logger.WithField("path", path).Debug("template store open, %d built-ins seeded", seeded)
	return s, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func putTemplate(b *bolt.Bucket, t Template) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return b.Put([]byte(t.ID), data)
}

func getTemplate(b *bolt.Bucket, id string) (Template, bool, error) {
	data := b.Get([]byte(id))
	if data == nil {
		return Template{}, false, nil
	}
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return Template{}, false, err
	}
	return t, true, nil
}

// List returns all templates, built-ins first, then by name.
func (s *Store) List() ([]Template, error) {
	var out []Template
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(_, v []byte) error {
			var t Template
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			out = append(out, t)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTemplateStore, "unable to list templates")
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsBuiltIn != out[j].IsBuiltIn {
			return out[i].IsBuiltIn
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Count returns the number of stored templates.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})
	return n, err
}

// Get returns the template with id.
func (s *Store) Get(id string) (Template, error) {
	var (
		t  Template
		ok bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		t, ok, err = getTemplate(tx.Bucket(bucketName), id)
		return err
	})
	if err != nil {
		return Template{}, errors.Wrap(err, errors.ErrTemplateStore, "unable to read template")
	}
	if !ok {
		return Template{}, errors.TemplateNotFoundError(id)
	}
	return t, nil
}

// Put stores t and returns it as stored. An empty ID is assigned a new
// UUID. Built-in templates cannot be overwritten, and a stored template is
// never built-in.
func (s *Store) Put(t Template) (Template, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return Template{}, errors.New(errors.ErrTemplateInvalid, "template needs a name")
	}
	if strings.TrimSpace(t.Code) == "" {
		return Template{}, errors.New(errors.ErrTemplateInvalid, "template code is empty")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.IsBuiltIn = false
	t.UpdatedAt = time.Now().UTC()

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		old, ok, err := getTemplate(b, t.ID)
		if err != nil {
			return err
		}
		if ok && old.IsBuiltIn {
			return errors.Newf(errors.ErrTemplateBuiltIn, "template %q is built in", t.ID)
		}
		return putTemplate(b, t)
	})
	if err != nil {
		if errors.IsTemplate(err) {
			return Template{}, err
		}
		return Template{}, errors.Wrap(err, errors.ErrTemplateStore, "unable to store template")
	}
	s.logger.WithField("id", t.ID).Info("stored template %q", t.Name)
	return t, nil
}

// Delete removes the template with id. Built-ins are refused.
func (s *Store) Delete(id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		t, ok, err := getTemplate(b, id)
		if err != nil {
			return err
		}
		if !ok {
			return errors.TemplateNotFoundError(id)
		}
		if t.IsBuiltIn {
			return errors.Newf(errors.ErrTemplateBuiltIn, "template %q is built in", id)
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		if errors.IsTemplate(err) {
			return err
		}
		return errors.Wrap(err, errors.ErrTemplateStore, "unable to delete template")
	}
	s.logger.WithField("id", id).Info("deleted template")
	return nil
}
