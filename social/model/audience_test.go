package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAudience_Visibility(t *testing.T) {
	origin := NewOrigin(OriginActivityPub, "https://example.com")

	var a Audience
	assert.Equal(t, VisibilityPrivate, a.Visibility())

	// Explicit recipients alone don't make it public
	a.Add(NewActor(origin, "https://example.com/users/alice"))
	assert.Equal(t, VisibilityPrivate, a.Visibility())

	a.Public = true
	assert.Equal(t, VisibilityPublic, a.Visibility())

	a.Followers = true
	assert.Equal(t, VisibilityPublicAndToFollowers, a.Visibility())

	// Followers alone is still private: nobody outside the circle sees it
	b := Audience{Followers: true}
	assert.Equal(t, VisibilityPrivate, b.Visibility())
}

func TestAudience_AddOid(t *testing.T) {
	origin := NewOrigin(OriginActivityPub, "https://example.com")

	for _, oid := range []string{
		"https://www.w3.org/ns/activitystreams#Public",
		"as:Public",
		"Public",
	} {
		var a Audience
		a.AddOid(origin, oid)
		assert.True(t, a.Public, "oid %s should mark the audience public", oid)
		assert.Empty(t, a.Recipients)
	}

	var a Audience
	a.AddOid(origin, "https://example.com/users/alice/followers")
	assert.True(t, a.Followers)
	assert.False(t, a.Public)
	assert.Empty(t, a.Recipients)

	a.AddOid(origin, "https://example.com/users/bob")
	a.AddOid(origin, "https://example.com/users/bob") // duplicate
	a.AddOid(origin, "")
	assert.Len(t, a.Recipients, 1)
	assert.Equal(t, "https://example.com/users/bob", a.Recipients[0].Oid)
}
