package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"apptrueq/pkg/errors"
	"apptrueq/pkg/logger"
	"apptrueq/pkg/stream"
)

const (
	collectionOffers        = "offers"
	collectionNeeds         = "needs"
	collectionProposals     = "proposals"
	collectionProposalLocks = "proposal_locks"
	collectionTrades        = "trades"
	collectionNotifications = "notifications"
	collectionReports       = "reports"
	collectionReportLocks   = "report_locks"
	collectionUsers         = "users"
)

func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// countQuery runs a server side COUNT aggregation instead of reading every document.
func countQuery(ctx context.Context, query firestore.Query, resource string) (int64, error) {
	res, err := query.NewAggregationQuery().WithCount("count").Get(ctx)
	if err != nil {
		return 0, errors.Internal("Failed to count "+resource, err)
	}
	return countFromResult(res)
}

func countFromResult(res firestore.AggregationResult) (int64, error) {
	v, ok := res["count"].(*firestorepb.Value)
	if !ok {
		return 0, errors.Internal("Count aggregation returned no value", nil)
	}
	return v.GetIntegerValue(), nil
}

// getDoc reads a single document into T, mapping a missing document to NOT_FOUND.
func getDoc[T any](ctx context.Context, ref *firestore.DocumentRef, resource string) (*T, error) {
	doc, err := ref.Get(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil, errors.NotFound(resource, err)
		}
		return nil, errors.Internal("Failed to get "+resource, err)
	}

	var item T
	if err := doc.DataTo(&item); err != nil {
		return nil, errors.Internal("Failed to parse "+resource+" data", err)
	}
	return &item, nil
}

func queryAll[T any](ctx context.Context, query firestore.Query, resource string) ([]*T, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	items := []*T{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate "+resource, err)
		}

		var item T
		if err := doc.DataTo(&item); err != nil {
			return nil, errors.Internal("Failed to parse "+resource+" data", err)
		}
		items = append(items, &item)
	}
	return items, nil
}

// watchQuery attaches a snapshot listener to query and emits the full result
// set on every change. The listener is removed and the channel closed when
// ctx ends or the listener fails; a failure is emitted once before closing.
func watchQuery[T any](ctx context.Context, query firestore.Query, resource string) <-chan stream.Snapshot[*T] {
	out := make(chan stream.Snapshot[*T])

	go func() {
		defer close(out)

		it := query.Snapshots(ctx)
		defer it.Stop()

		send := func(s stream.Snapshot[*T]) bool {
			select {
			case out <- s:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			snap, err := it.Next()
			if err != nil {
				if err == iterator.Done || ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				logger.Error("Snapshot listener for %s failed: %v", resource, err)
				send(stream.Snapshot[*T]{Err: errors.Internal("Failed to listen to "+resource, err)})
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				send(stream.Snapshot[*T]{Err: errors.Internal("Failed to read "+resource, err)})
				return
			}

			items := make([]*T, 0, len(docs))
			for _, doc := range docs {
				var item T
				if err := doc.DataTo(&item); err != nil {
					logger.Warn("Skipping unreadable %s document %s: %v", resource, doc.Ref.ID, err)
					continue
				}
				items = append(items, &item)
			}

			if !send(stream.Snapshot[*T]{Items: items}) {
				return
			}
		}
	}()

	return out
}
