// Package extcrypto provides identifier and hashing functions for card
// templates, such as generating element ids or avatar fingerprints.
//
// Security note: MD5 and SHA-1 are provided for compatibility/fingerprinting only
// and should NOT be used for cryptographic security purposes.
package extcrypto

import (
	"context"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // intentional: provided for non-security fingerprinting
	"crypto/sha1" //nolint:gosec // intentional
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/google/uuid"

	"github.com/sandrolain/actemplate/pkg/ext/extutil"
	"github.com/sandrolain/actemplate/pkg/functions"
	"github.com/sandrolain/actemplate/pkg/types"
)

// All returns all extended cryptographic function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		UUID(),
		Hash(),
		HMAC(),
	}
}

// UUID returns the definition for uuid([name]).
// Without arguments it returns a random version 4 UUID. With a name it
// returns the deterministic version 5 UUID of that name in the URL
// namespace, so the same input always yields the same id.
func UUID() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "uuid",
		MinArgs: 0,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			if name := extutil.Arg(args, 0); !name.IsNull() {
				return types.String(uuid.NewSHA1(uuid.NameSpaceURL, []byte(extutil.Text(name))).String()), nil
			}
			id, err := uuid.NewRandom()
			if err != nil {
				return types.Undefined(), types.NewError(types.ErrFunctionFailed,
					"uuid: failed to generate random bytes", -1).WithCause(err)
			}
			return types.String(id.String()), nil
		},
	}
}

// Hash returns the definition for hash(str [, algorithm]).
// Supported algorithms: "md5", "sha1", "sha256" (default), "sha384", "sha512".
// Returns a lowercase hex-encoded digest.
func Hash() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "hash",
		MinArgs: 1,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			algorithm := "sha256"
			if a := extutil.Arg(args, 1); !a.IsNull() {
				algorithm = extutil.Text(a)
			}
			newHash, err := hasher("hash", algorithm)
			if err != nil {
				return types.Undefined(), err
			}
			h := newHash()
			h.Write([]byte(extutil.Text(args[0])))
			return types.String(hex.EncodeToString(h.Sum(nil))), nil
		},
	}
}

// HMAC returns the definition for hmac(str, key [, algorithm]).
// Returns a lowercase hex-encoded HMAC; the algorithm defaults to sha256.
func HMAC() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "hmac",
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			algorithm := "sha256"
			if a := extutil.Arg(args, 2); !a.IsNull() {
				algorithm = extutil.Text(a)
			}
			newHash, err := hasher("hmac", algorithm)
			if err != nil {
				return types.Undefined(), err
			}
			mac := hmac.New(newHash, []byte(extutil.Text(args[1])))
			mac.Write([]byte(extutil.Text(args[0])))
			return types.String(hex.EncodeToString(mac.Sum(nil))), nil
		},
	}
}

func hasher(fn, algorithm string) (func() hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "md5":
		return md5.New, nil //nolint:gosec
	case "sha1":
		return sha1.New, nil //nolint:gosec
	case "sha256":
		return sha256.New, nil
	case "sha384":
		return sha512.New384, nil
	case "sha512":
		return sha512.New, nil
	default:
		return nil, extutil.Errorf(fn, "unsupported algorithm %q; use md5, sha1, sha256, sha384, or sha512", algorithm)
	}
}
