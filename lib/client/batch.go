package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/unikv/unikv/lib/backend"
	"github.com/unikv/unikv/lib/hook"
)

// --------------------------------------------------------------------------
// Batch Error
// --------------------------------------------------------------------------

// BatchError aggregates per-key failures of a batch operation. Keys absent
// from Failed succeeded; a batch is all-or-nothing only when the backend's
// native batch capability makes it so.
type BatchError struct {
	Op     string
	Failed map[string]error
}

func (e *BatchError) Error() string {
	keys := make([]string, 0, len(e.Failed))
	for key := range e.Failed {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return fmt.Sprintf("client: %s failed for %d key(s): %s",
		e.Op, len(keys), strings.Join(keys, ", "))
}

// Unwrap exposes the per-key errors to errors.Is / errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, err := range e.Failed {
		errs = append(errs, err)
	}
	return errs
}

// --------------------------------------------------------------------------
// Batch Operations
// --------------------------------------------------------------------------

func (c *clientImpl) BatchSet(ctx context.Context, pairs map[string]any) (err error) {
	defer func() { track("batchset", err) }()

	if err = ctx.Err(); err != nil {
		return err
	}

	// Encode everything up front. A single bad value rejects the whole
	// batch before any key is written.
	encoded := make(map[string][]byte, len(pairs))
	for key, value := range pairs {
		if key == "" {
			return newError(KindValidation, "BatchSet", "", errors.New("empty key"))
		}
		data, encErr := c.codec.Encode(ctx, value)
		if encErr != nil {
			return newError(KindEncode, "BatchSet", key, encErr)
		}
		encoded[key] = data
	}

	if bb, ok := c.backend.(backend.BatchBackend); ok {
		if beErr := bb.BatchSetRaw(ctx, encoded); beErr != nil {
			Logger.Errorf("BatchSet failed: %v", beErr)
			return newError(KindBackend, "BatchSet", "", beErr)
		}
		c.dispatchPerKeySet(ctx, encoded)
		return nil
	}

	// Sequential fallback with per-key error isolation.
	failed := make(map[string]error)
	for key, data := range encoded {
		if beErr := c.backend.SetRaw(ctx, key, data); beErr != nil {
			failed[key] = newError(KindBackend, "BatchSet", key, beErr)
			continue
		}
		c.hooks.Dispatch(ctx, hook.Event{Type: hook.EventBatchSet, Key: key, Value: data})
	}
	if len(failed) > 0 {
		return &BatchError{Op: "BatchSet", Failed: failed}
	}
	return nil
}

func (c *clientImpl) BatchGet(ctx context.Context, keys []string) (result map[string][]byte, err error) {
	defer func() { track("batchget", err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if key == "" {
			return nil, newError(KindValidation, "BatchGet", "", errors.New("empty key"))
		}
	}

	if bb, ok := c.backend.(backend.BatchBackend); ok {
		result, beErr := bb.BatchGetRaw(ctx, keys)
		if beErr != nil {
			Logger.Errorf("BatchGet failed: %v", beErr)
			return nil, newError(KindBackend, "BatchGet", "", beErr)
		}
		return result, nil
	}

	result = make(map[string][]byte, len(keys))
	failed := make(map[string]error)
	for _, key := range keys {
		data, beErr := c.backend.GetRaw(ctx, key)
		if beErr != nil {
			if errors.Is(beErr, backend.ErrNotFound) {
				continue // absent keys are not batch failures
			}
			failed[key] = newError(KindBackend, "BatchGet", key, beErr)
			continue
		}
		result[key] = data
	}
	if len(failed) > 0 {
		return nil, &BatchError{Op: "BatchGet", Failed: failed}
	}
	return result, nil
}

func (c *clientImpl) BatchDelete(ctx context.Context, keys []string) (err error) {
	defer func() { track("batchdelete", err) }()

	if err = ctx.Err(); err != nil {
		return err
	}
	for _, key := range keys {
		if key == "" {
			return newError(KindValidation, "BatchDelete", "", errors.New("empty key"))
		}
	}

	if bb, ok := c.backend.(backend.BatchBackend); ok {
		if beErr := bb.BatchDelete(ctx, keys); beErr != nil {
			Logger.Errorf("BatchDelete failed: %v", beErr)
			return newError(KindBackend, "BatchDelete", "", beErr)
		}
		for _, key := range keys {
			c.hooks.Dispatch(ctx, hook.Event{Type: hook.EventBatchDelete, Key: key})
		}
		return nil
	}

	failed := make(map[string]error)
	for _, key := range keys {
		if beErr := c.backend.Delete(ctx, key); beErr != nil {
			failed[key] = newError(KindBackend, "BatchDelete", key, beErr)
			continue
		}
		c.hooks.Dispatch(ctx, hook.Event{Type: hook.EventBatchDelete, Key: key})
	}
	if len(failed) > 0 {
		return &BatchError{Op: "BatchDelete", Failed: failed}
	}
	return nil
}

// dispatchPerKeySet emits one batch-set event per written key after a native
// batch write succeeded as a whole.
func (c *clientImpl) dispatchPerKeySet(ctx context.Context, encoded map[string][]byte) {
	for key, data := range encoded {
		c.hooks.Dispatch(ctx, hook.Event{Type: hook.EventBatchSet, Key: key, Value: data})
	}
}
