package userapi

import (
	"fmt"
	"net/http"
	"strings"
)

// Endpoint is one operation of the records API. FailureMessage is shown
// when the backend does not send its own message.
type Endpoint struct {
	Operation      string
	Method         string
	Path           string
	Authorized     bool
	FailureMessage string
}

var (
	EndpointLogin = Endpoint{
		Operation: "login", Method: http.MethodPost, Path: "/auth/login",
		FailureMessage: "Login gagal",
	}
	EndpointListUsers = Endpoint{
		Operation: "list_users", Method: http.MethodGet, Path: "/users", Authorized: true,
		FailureMessage: "Gagal mengambil data user",
	}
	EndpointGetUser = Endpoint{
		Operation: "get_user", Method: http.MethodGet, Path: "/users/%d", Authorized: true,
		FailureMessage: "Gagal mengambil data user",
	}
	EndpointCreateUser = Endpoint{
		Operation: "create_user", Method: http.MethodPost, Path: "/auth/register", Authorized: true,
		FailureMessage: "Gagal menambahkan user",
	}
	EndpointUpdateUser = Endpoint{
		Operation: "update_user", Method: http.MethodPut, Path: "/users/%d", Authorized: true,
		FailureMessage: "Gagal mengupdate user",
	}
	EndpointDeleteUser = Endpoint{
		Operation: "deactivate_user", Method: http.MethodDelete, Path: "/users/%d", Authorized: true,
		FailureMessage: "Gagal menghapus user",
	}
	EndpointSetPassword = Endpoint{
		Operation: "set_password", Method: http.MethodPut, Path: "/users/%d/password", Authorized: true,
		FailureMessage: "Gagal reset password",
	}
	EndpointResetPassword = Endpoint{
		Operation: "reset_password", Method: http.MethodPost, Path: "/users/%d/reset-password", Authorized: true,
		FailureMessage: "Gagal reset password",
	}
	EndpointSetStatus = Endpoint{
		Operation: "set_status", Method: http.MethodPut, Path: "/users/%d/status", Authorized: true,
		FailureMessage: "Gagal mengubah status user",
	}
	EndpointActivityLogs = Endpoint{
		Operation: "activity_logs", Method: http.MethodGet, Path: "/users/%d/activity-logs", Authorized: true,
		FailureMessage: "Gagal mengambil log aktivitas",
	}
	EndpointUserStats = Endpoint{
		Operation: "user_stats", Method: http.MethodGet, Path: "/users/%d/stats", Authorized: true,
		FailureMessage: "Gagal mengambil statistik user",
	}
)

// Endpoints lists every operation in documentation order.
var Endpoints = []Endpoint{
	EndpointLogin,
	EndpointListUsers,
	EndpointGetUser,
	EndpointCreateUser,
	EndpointUpdateUser,
	EndpointDeleteUser,
	EndpointSetPassword,
	EndpointResetPassword,
	EndpointSetStatus,
	EndpointActivityLogs,
	EndpointUserStats,
}

// Resolve expands the {id} placeholder of the endpoint path.
func (e Endpoint) Resolve(id int64) string {
	if !strings.Contains(e.Path, "%d") {
		return e.Path
	}
	return fmt.Sprintf(e.Path, id)
}
