package http

import (
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/auth/service"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ledger"
)

type Handler struct {
	authService *service.AuthService
	accountant  *ledger.Accountant
}

func New(authService *service.AuthService, accountant *ledger.Accountant) *Handler {
	return &Handler{
		authService: authService,
		accountant:  accountant,
	}
}
