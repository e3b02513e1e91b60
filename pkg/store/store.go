// Package store archives generated networks for later retrieval.
//
// A Record pairs the serialized network with its identity and bookkeeping
// metadata (name, creation time, parameter set, content hash, summary
// statistics). Two backends implement the Store interface:
//
//   - memory: in-process storage for development and tests
//   - mongo: MongoDB-backed storage for server deployments
//
// Listings return records without the network payload, so index pages stay
// cheap even when archived networks are large.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/cityscale/hypertransit/pkg/errors"
	"github.com/cityscale/hypertransit/pkg/network"
)

// Record is an archived network.
type Record struct {
	ID        string           `json:"id" bson:"_id"`
	Name      string           `json:"name" bson:"name"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
	Params    network.Params   `json:"params" bson:"params"`
	Hash      string           `json:"hash" bson:"hash"`
	Stats     network.Stats    `json:"stats" bson:"stats"`
	Network   *network.Network `json:"network,omitempty" bson:"network,omitempty"`
}

// NewRecord builds a record for a freshly generated network.
// The ID is a random UUID; CreatedAt is stamped in UTC.
func NewRecord(name string, net *network.Network, hash string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Params:    net.Params,
		Hash:      hash,
		Stats:     network.Summarize(net),
		Network:   net,
	}
}

// Summary returns a copy of the record without the network payload.
func (r *Record) Summary() *Record {
	s := *r
	s.Network = nil
	return &s
}

// Validate checks the record before storage.
func (r *Record) Validate() error {
	if r.ID == "" {
		return apperrors.New(apperrors.ErrCodeInvalidParameter, "record ID must not be empty")
	}
	if err := apperrors.ValidateNetworkName(r.Name); err != nil {
		return err
	}
	if r.Network == nil {
		return apperrors.New(apperrors.ErrCodeInvalidParameter, "record must carry a network")
	}
	return nil
}

// Store persists network records.
type Store interface {
	// Put stores a record, replacing any record with the same ID.
	Put(ctx context.Context, rec *Record) error

	// Get retrieves a record with its network payload.
	// Missing IDs return a NETWORK_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns record summaries, newest first, without payloads.
	List(ctx context.Context) ([]*Record, error)

	// Delete removes a record.
	// Missing IDs return a NETWORK_NOT_FOUND error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
