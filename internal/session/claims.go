// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package session turns the access and refresh token cookies into a
// request-scoped session and keeps them in sync with the backend.
package session

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/access"
)

// ExpirySkew treats tokens this close to expiry as already expired.
const ExpirySkew = 20 * time.Second

// Role is the role embedded in the access token.
type Role struct {
	ID   *int64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Snapshot is what the frontend knows about the current user.
type Snapshot struct {
	Authenticated bool     `json:"authenticated"`
	UserID        string   `json:"userId,omitempty"`
	Username      string   `json:"username,omitempty"`
	Exp           int64    `json:"exp,omitempty"`
	Role          Role     `json:"role"`
	RoleSlug      string   `json:"roleSlug"`
	Permissions   []string `json:"permissions"`
}

// IsAdministrative reports whether the snapshot's role bypasses claim checks.
func (s Snapshot) IsAdministrative() bool {
	return access.IsAdministrative(s.RoleSlug)
}

// HasAreaAccess applies the area predicate to this session.
func (s Snapshot) HasAreaAccess(area access.Area) bool {
	return s.Authenticated && access.HasAreaAccess(s.RoleSlug, area, s.Permissions)
}

// Allows applies the level predicate to this session.
func (s Snapshot) Allows(area access.Area, level access.Level) bool {
	return s.Authenticated && access.Allows(s.RoleSlug, area, level, s.Permissions)
}

// DecodeClaims reads a JWT payload without verifying the signature. The
// backend verifies tokens; the frontend only needs the claims for display and
// navigation.
func DecodeClaims(token string) (jwt.MapClaims, bool) {
	if strings.Count(token, ".") != 2 {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// IsExpired reports whether token is unusable at now. Undecodable tokens and
// tokens without exp are expired.
func IsExpired(token string, now time.Time) bool {
	claims, ok := DecodeClaims(token)
	if !ok {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !exp.Time.After(now.Add(ExpirySkew))
}

// FromTokens builds the snapshot for a request. The session counts as
// authenticated when either cookie is present; claims come from the access
// token.
func FromTokens(accessToken, refreshToken string) Snapshot {
	snap := Snapshot{
		Authenticated: accessToken != "" || refreshToken != "",
		Permissions:   []string{},
	}
	claims, ok := DecodeClaims(accessToken)
	if !ok {
		return snap
	}

	snap.UserID = firstString(claims, "user_id", "sub")
	snap.Username = firstString(claims, "username", "preferred_username", "email")
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		snap.Exp = exp.Unix()
	}
	snap.Role = parseRole(claims)
	snap.RoleSlug = snap.Role.Slug
	snap.Permissions = parsePermissions(claims)
	return snap
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(claims[k]); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int, int64:
		return fmt.Sprint(t)
	}
	return ""
}

func parseRole(claims jwt.MapClaims) Role {
	var nested map[string]any
	var roleString string
	switch r := claims["role"].(type) {
	case map[string]any:
		nested = r
	case string:
		roleString = strings.TrimSpace(r)
	}

	role := Role{}

	slug := scalarString(claims["role_slug"])
	if slug == "" && nested != nil {
		slug = scalarString(nested["slug"])
	}
	if slug == "" {
		slug = roleString
	}
	role.Slug = access.NormalizeRoleSlug(slug)

	role.Name = scalarString(claims["role_name"])
	if role.Name == "" && nested != nil {
		role.Name = scalarString(nested["name"])
	}
	if role.Name == "" {
		role.Name = roleString
	}

	id := claims["role_id"]
	if id == nil && nested != nil {
		id = nested["id"]
	}
	role.ID = parseID(id)
	return role
}

func parseID(v any) *int64 {
	s := scalarString(v)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	id := int64(f)
	return &id
}

var permissionSeparators = regexp.MustCompile(`[,\s]+`)

var permissionKeys = []string{"permissions", "perms", "permission", "scope", "scopes"}

func parsePermissions(claims jwt.MapClaims) []string {
	var raw []string
	for _, k := range permissionKeys {
		raw = append(raw, permissionValues(claims[k])...)
	}
	out := access.NormalizeClaims(raw)
	if out == nil {
		return []string{}
	}
	return out
}

func permissionValues(v any) []string {
	switch t := v.(type) {
	case string:
		return permissionSeparators.Split(t, -1)
	case []any:
		var out []string
		for _, item := range t {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]any:
				for _, k := range []string{"codename", "code", "name", "slug"} {
					if s := scalarString(it[k]); s != "" {
						out = append(out, s)
						break
					}
				}
			}
		}
		return out
	}
	return nil
}
