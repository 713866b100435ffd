package media

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"media-store/core/storage"

	"go.uber.org/zap"
)

// DeleteResult reports what Delete did to the stored object.
type DeleteResult struct {
	// Removed is true when the last reference was dropped and the object deleted.
	Removed bool `json:"removed"`
	// References is the remaining count when the object survived.
	References int `json:"references"`
}

// References returns the reference count of the object at mediaPath. An object
// without references metadata counts as one.
func (p *Provider) References(ctx context.Context, mediaPath string, opts ...Option) (int, error) {
	info, err := p.Stat(ctx, mediaPath, opts...)
	if err != nil {
		return 0, err
	}
	return referencesOf(info)
}

// AddReferences records one more logical referent of the object at mediaPath.
func (p *Provider) AddReferences(ctx context.Context, mediaPath string, opts ...Option) (storage.UploadInfo, error) {
	req, err := p.request(mediaPath, opts)
	if err != nil {
		return storage.UploadInfo{}, err
	}

	var result storage.UploadInfo
	err = p.update(ctx, req, func(info storage.ObjectInfo) error {
		refs, err := referencesOf(info)
		if err != nil {
			return err
		}
		result, err = p.writeReferences(ctx, req, info, refs+1)
		return err
	})
	return result, err
}

// Delete drops one logical referent of the object at mediaPath. The object is
// removed once its last referent is gone; otherwise only the count drops.
func (p *Provider) Delete(ctx context.Context, mediaPath string, opts ...Option) (DeleteResult, error) {
	req, err := p.request(mediaPath, opts)
	if err != nil {
		return DeleteResult{}, err
	}

	var result DeleteResult
	err = p.update(ctx, req, func(info storage.ObjectInfo) error {
		refs, err := referencesOf(info)
		if err != nil {
			return err
		}
		if refs == 1 {
			if err := p.client.RemoveObject(ctx, req.bucket, req.key); err != nil {
				return err
			}
			p.logger.Debug("Removed last reference", zap.Stringer("object", req))
			result = DeleteResult{Removed: true}
			return nil
		}
		if _, err := p.writeReferences(ctx, req, info, refs-1); err != nil {
			return err
		}
		result = DeleteResult{References: refs - 1}
		return nil
	})
	return result, err
}

// update runs a read-modify-write of the object's metadata. Calls on the same
// object through this provider are serialized; writers in other processes are
// only detected when they replace the content (the ETag changes), since a
// metadata-only self-copy keeps the ETag on S3. The final RemoveObject of a
// last referent is not conditional.
func (p *Provider) update(ctx context.Context, req request, apply func(storage.ObjectInfo) error) error {
	unlock := p.locks.lock(req.String())
	defer unlock()

	var err error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		var info storage.ObjectInfo
		info, err = p.client.StatObject(ctx, req.bucket, req.key)
		if err != nil {
			return err
		}
		if err = apply(info); !errors.Is(err, storage.ErrPreconditionFailed) {
			return err
		}
		p.logger.Debug("Object changed during reference update, retrying",
			zap.Stringer("object", req), zap.Int("attempt", attempt))
	}
	return fmt.Errorf("%w: %s: %w", ErrConflict, req, err)
}

// writeReferences copies the object onto itself, replacing its metadata with
// the new count. Other user metadata and the content type are carried over.
func (p *Provider) writeReferences(ctx context.Context, req request, info storage.ObjectInfo, refs int) (storage.UploadInfo, error) {
	meta := make(map[string]string, len(info.Metadata)+1)
	for k, v := range info.Metadata {
		meta[k] = v
	}
	meta[storage.MetaReferences] = strconv.Itoa(refs)

	result, err := p.client.CopyObject(ctx, req.bucket, req.key, req.key, storage.CopyOptions{
		ReplaceMetadata: true,
		Metadata:        meta,
		ContentType:     info.ContentType,
		MatchETag:       info.ETag,
	})
	if err != nil {
		return storage.UploadInfo{}, err
	}
	p.logger.Debug("Updated references", zap.Stringer("object", req), zap.Int("references", refs))
	return result, nil
}

func referencesOf(info storage.ObjectInfo) (int, error) {
	raw, ok := info.References()
	if !ok {
		return 1, nil
	}
	n, err := ParseReferences(raw)
	if err != nil {
		return 0, fmt.Errorf("%s/%s: %w", info.Bucket, info.Key, err)
	}
	return n, nil
}

// ParseReferences parses a references metadata value. Only positive decimal
// integers without sign, padding or leading zeros are accepted.
func ParseReferences(raw string) (int, error) {
	if raw == "" || raw[0] < '1' || raw[0] > '9' {
		return 0, fmt.Errorf("%w: references %q", ErrProtocolViolation, raw)
	}
	for i := 1; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, fmt.Errorf("%w: references %q", ErrProtocolViolation, raw)
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: references %q: %v", ErrProtocolViolation, raw, err)
	}
	return n, nil
}
