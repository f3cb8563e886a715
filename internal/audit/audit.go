// Package audit keeps a raw trail of payment envelopes and facilitator
// traffic in Mongo for offline review and dispute handling. The relational
// store stays the source of truth; losing an audit write never fails a
// purchase.
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/davidrodr1guez/ultrabingo402-sub000/internal/x402"
)

const collectionName = "payment_audit"

// Retention bounds how long audit documents live before the TTL index
// removes them.
const Retention = 90 * 24 * time.Hour

type Recorder struct {
	col *mongo.Collection
}

func NewRecorder(db *mongo.Database) *Recorder {
	return &Recorder{col: db.Collection(collectionName)}
}

// CollectionName is exported so the caller can set up the TTL index.
func CollectionName() string { return collectionName }

type envelopeDoc struct {
	PaymentID string         `bson:"payment_id"`
	Kind      string         `bson:"kind"`
	Envelope  *x402.Envelope `bson:"envelope"`
	CreatedAt time.Time      `bson:"created_at"`
	ExpiresAt time.Time      `bson:"expires_at"`
}

type settlementDoc struct {
	PaymentID string      `bson:"payment_id"`
	Kind      string      `bson:"kind"`
	Stage     string      `bson:"stage"`
	Detail    interface{} `bson:"detail"`
	CreatedAt time.Time   `bson:"created_at"`
	ExpiresAt time.Time   `bson:"expires_at"`
}

func (r *Recorder) RecordEnvelope(ctx context.Context, paymentID string, env *x402.Envelope) error {
	now := time.Now().UTC()
	_, err := r.col.InsertOne(ctx, envelopeDoc{
		PaymentID: paymentID,
		Kind:      "envelope",
		Envelope:  env,
		CreatedAt: now,
		ExpiresAt: now.Add(Retention),
	})
	return err
}

func (r *Recorder) RecordSettlement(ctx context.Context, paymentID, stage string, detail interface{}) error {
	now := time.Now().UTC()
	_, err := r.col.InsertOne(ctx, settlementDoc{
		PaymentID: paymentID,
		Kind:      "settlement",
		Stage:     stage,
		Detail:    detail,
		CreatedAt: now,
		ExpiresAt: now.Add(Retention),
	})
	return err
}
