package fakeapi

import (
	"context"

	"github.com/pribylovaa/dental-clinic/internal/models"
)

type profileKey struct{}

func withProfile(ctx context.Context, p models.UserProfile) context.Context {
	return context.WithValue(ctx, profileKey{}, p)
}

func profileFrom(ctx context.Context) models.UserProfile {
	p, _ := ctx.Value(profileKey{}).(models.UserProfile)
	return p
}
