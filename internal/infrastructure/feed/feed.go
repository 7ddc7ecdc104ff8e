// Package feed fans change signals for an owner's medication collection out
// to live subscribers, in process or across processes through Redis.
package feed

import "context"

// Feed carries "owner's collection changed" signals. Signals carry no payload;
// subscribers re-read the collection.
type Feed interface {
	// Publish signals every subscriber of ownerID.
	Publish(ctx context.Context, ownerID string) error
	// Subscribe returns a channel that receives at most one pending signal at a
	// time, and a function that releases the subscription.
	Subscribe(ownerID string) (<-chan struct{}, func())
}
