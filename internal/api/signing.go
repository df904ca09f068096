package api

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	"github.com/kkkkikiki/crowdfund/internal/auth"
)

// AuthorizationHeader carries the request token.
const AuthorizationHeader = "Authorization"

const bearerPrefix = "Bearer "

// NewSigningInterceptor signs every instruction request with signer. Query
// requests pass through unsigned.
func NewSigningInterceptor(signer *auth.Signer) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			instruction, ok := Instruction(req.Spec().Procedure)
			if !req.Spec().IsClient || !ok {
				return next(ctx, req)
			}

			body, err := Codec{}.Marshal(req.Any())
			if err != nil {
				return nil, err
			}
			token, err := signer.Sign(instruction, body)
			if err != nil {
				return nil, fmt.Errorf("failed to sign request: %w", err)
			}
			req.Header().Set(AuthorizationHeader, bearerPrefix+token)
			return next(ctx, req)
		}
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if len(header) < len(bearerPrefix) || header[:len(bearerPrefix)] != bearerPrefix {
		return ""
	}
	return header[len(bearerPrefix):]
}
