// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_objecturl

import (
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	internal_audio "github.com/alteraai/api/persona-api/internal/audio"
	"github.com/alteraai/pkg/commons"
)

const Scheme = "blob:"

// Registry hands out playable URLs for finalized recordings. A URL stays
// resolvable until it is revoked or pushed out by newer recordings.
type Registry interface {
	// Create registers blob for owner; an empty owner makes it resolvable
	// by anyone holding the url.
	Create(owner string, blob *internal_audio.Blob) string
	Resolve(url string) (*internal_audio.Blob, bool)
	// ResolveFor only finds recordings created for owner.
	ResolveFor(owner, url string) (*internal_audio.Blob, bool)
	Revoke(url string)
	Len() int
}

type entry struct {
	owner string
	blob  *internal_audio.Blob
}

type lruRegistry struct {
	logger commons.Logger
	cache  *lru.Cache[string, entry]
}

func NewRegistry(logger commons.Logger, capacity int) (Registry, error) {
	r := &lruRegistry{logger: logger}
	cache, err := lru.NewWithEvict[string, entry](capacity, r.onEvict)
	if err != nil {
		return nil, err
	}
	r.cache = cache
	return r, nil
}

func (r *lruRegistry) onEvict(key string, e entry) {
	r.logger.Debugf("released object url %s%s (%d bytes)", Scheme, key, e.blob.Size())
}

func (r *lruRegistry) Create(owner string, blob *internal_audio.Blob) string {
	id := uuid.NewString()
	r.cache.Add(id, entry{owner: owner, blob: blob})
	return Scheme + id
}

func (r *lruRegistry) Resolve(url string) (*internal_audio.Blob, bool) {
	e, ok := r.cache.Get(ID(url))
	if !ok {
		return nil, false
	}
	return e.blob, true
}

func (r *lruRegistry) ResolveFor(owner, url string) (*internal_audio.Blob, bool) {
	e, ok := r.cache.Get(ID(url))
	if !ok || (e.owner != "" && e.owner != owner) {
		return nil, false
	}
	return e.blob, true
}

func (r *lruRegistry) Revoke(url string) {
	if url == "" {
		return
	}
	r.cache.Remove(ID(url))
}

func (r *lruRegistry) Len() int {
	return r.cache.Len()
}

// ID strips the scheme, accepting both "blob:<id>" and a bare id.
func ID(url string) string {
	return strings.TrimPrefix(url, Scheme)
}
