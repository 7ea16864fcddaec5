package reporting

import (
	"context"
	"maps"
	"time"
)

type metaContextKey struct{}

// ReportingMeta is attached to every error reported from a request
type ReportingMeta struct {
	tags      map[string]string
	extras    map[string]string
	userID    string
	startedAt time.Time
}

func (m ReportingMeta) clone() ReportingMeta {
	tags := maps.Clone(m.tags)
	if tags == nil {
		tags = map[string]string{}
	}
	extras := maps.Clone(m.extras)
	if extras == nil {
		extras = map[string]string{}
	}
	return ReportingMeta{
		tags:      tags,
		extras:    extras,
		userID:    m.userID,
		startedAt: m.startedAt,
	}
}

// MetaFromContext returns a copy of the meta stored in ctx, which is safe to modify
func MetaFromContext(ctx context.Context) ReportingMeta {
	meta, _ := ctx.Value(metaContextKey{}).(ReportingMeta)
	return meta.clone()
}

func updateMeta(ctx context.Context, update func(meta *ReportingMeta)) context.Context {
	meta := MetaFromContext(ctx)
	update(&meta)
	return context.WithValue(ctx, metaContextKey{}, meta)
}

func setStartedAtInContext(ctx context.Context, startedAt time.Time) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		meta.startedAt = startedAt
	})
}

func AddExtrasToContext(ctx context.Context, extras map[string]string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		maps.Copy(meta.extras, extras)
	})
}

func AddTagsToContext(ctx context.Context, tags map[string]string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		maps.Copy(meta.tags, tags)
	})
}

func SetUserIDInContext(ctx context.Context, userID string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		meta.userID = userID
	})
}
