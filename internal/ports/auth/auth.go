// Package auth define el contrato con el proveedor de identidad.
package auth

import "context"

// Claims es lo que el API necesita saber del usuario autenticado.
type Claims struct {
	UserID string
	Email  string
	// Name es el nombre para mostrar (primer nombre). Puede venir vacío.
	Name string
}

// Verifier valida un bearer token. Implementación real: adapters/auth/remote.
type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
