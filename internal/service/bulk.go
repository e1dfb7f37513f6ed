package service

import (
	"context"
	"fmt"

	"go-dropship-admin/internal/metrics"
	"go-dropship-admin/internal/model"
	"go-dropship-admin/pkg/logger"

	"golang.org/x/sync/errgroup"
)

type BulkOp string

const (
	BulkPurge   BulkOp = "purge"
	BulkRestore BulkOp = "restore"
	BulkTrash   BulkOp = "trash"
)

// Action is the permission action a bulk operation is authorized against.
func (op BulkOp) Action() string {
	switch op {
	case BulkPurge:
		return model.ActionPermanentDelete
	case BulkRestore:
		return model.ActionRestore
	case BulkTrash:
		return model.ActionSoftDelete
	}
	return ""
}

type BulkItem struct {
	ID   uint    `json:"id"`
	Name *string `json:"name"`
}

type BulkFailure struct {
	ID     uint    `json:"id"`
	Name   *string `json:"name"`
	Reason string  `json:"reason"`
}

// BulkResult lists every requested id exactly once, in request order.
type BulkResult struct {
	Succeeded []BulkItem    `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

type BulkCoordinator[T model.Record] interface {
	// Apply runs op on every id independently. An error is returned only when
	// the request itself is unusable; per-item failures land in the result.
	Apply(ctx context.Context, actor *model.ActorIdentity, ids []uint, op BulkOp) (*BulkResult, error)
}

type bulkCoordinator[T model.Record] struct {
	lifecycle   LifecycleManager[T]
	concurrency int
	log         *logger.Logger
}

func NewBulkCoordinator[T model.Record](lifecycle LifecycleManager[T], concurrency int, log *logger.Logger) BulkCoordinator[T] {
	if concurrency < 1 {
		concurrency = 1
	}
	return &bulkCoordinator[T]{
		lifecycle:   lifecycle,
		concurrency: concurrency,
		log:         log.Named("bulk-" + lifecycle.Config().EntityType),
	}
}

type bulkOutcome struct {
	name   *string
	reason string
	ok     bool
}

func (c *bulkCoordinator[T]) Apply(ctx context.Context, actor *model.ActorIdentity, ids []uint, op BulkOp) (*BulkResult, error) {
	if op.Action() == "" {
		return nil, NewValidationError("Unknown bulk operation %q", op)
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, NewValidationError("No IDs provided")
	}

	outcomes := make([]bulkOutcome, len(ids))
	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, id := range ids {
		if ctx.Err() != nil {
			outcomes[i] = bulkOutcome{reason: ReasonCancelled}
			continue
		}
		i, id := i, id
		g.Go(func() error {
			if ctx.Err() != nil {
				outcomes[i] = bulkOutcome{reason: ReasonCancelled}
				return nil
			}
			// A started item runs to completion even if the request goes away.
			outcomes[i] = c.applyOne(context.WithoutCancel(ctx), actor, id, op)
			return nil
		})
	}
	_ = g.Wait()

	entity := c.lifecycle.Config().EntityType
	result := &BulkResult{Succeeded: []BulkItem{}, Failed: []BulkFailure{}}
	for i, id := range ids {
		o := outcomes[i]
		if o.ok {
			result.Succeeded = append(result.Succeeded, BulkItem{ID: id, Name: o.name})
			metrics.BulkItems.WithLabelValues(entity, string(op), "success").Inc()
			continue
		}
		result.Failed = append(result.Failed, BulkFailure{ID: id, Name: o.name, Reason: o.reason})
		metrics.BulkItems.WithLabelValues(entity, string(op), "failed").Inc()
	}
	return result, nil
}

func (c *bulkCoordinator[T]) applyOne(ctx context.Context, actor *model.ActorIdentity, id uint, op BulkOp) bulkOutcome {
	var out bulkOutcome
	if entity, err := c.lifecycle.Get(ctx, id); err == nil {
		name := (*entity).Label()
		out.name = &name
	}

	var err error
	switch op {
	case BulkPurge:
		err = c.lifecycle.Purge(ctx, actor, id)
	case BulkRestore:
		err = c.lifecycle.Restore(ctx, actor, id)
	case BulkTrash:
		err = c.lifecycle.SoftDelete(ctx, actor, id)
	default:
		err = NewInternalError(fmt.Errorf("unhandled bulk operation %q", op))
	}
	if err == nil {
		out.ok = true
		return out
	}

	out.reason = bulkReason(err)
	if out.reason == ReasonInternalError {
		c.log.Errorf(err, "bulk %s of id %d failed", op, id)
	}
	return out
}

func bulkReason(err error) string {
	switch KindOf(err) {
	case KindNotFound:
		return ReasonNotFound
	case KindConflict:
		return MessageOf(err)
	}
	return ReasonInternalError
}

// uniqueIDs drops repeated ids, keeping the first occurrence.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
