package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/onswift/backend/pkg/errors"
)

var (
	// ErrCreatorRequired is returned when a talent calls a creator-only operation.
	ErrCreatorRequired = apperrors.New("CREATOR_REQUIRED", "Only creators can perform this action", http.StatusForbidden)
	// ErrTalentRequired is returned when a creator calls a talent-only operation.
	ErrTalentRequired = apperrors.New("TALENT_REQUIRED", "Only talents can perform this action", http.StatusForbidden)
	// ErrForbiddenRole is returned for accounts whose role is neither creator nor talent.
	ErrForbiddenRole = apperrors.New("UNKNOWN_ROLE", "Account role is not recognised", http.StatusForbidden)
	// ErrEmailTaken is returned on signup with an address that already has an account.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "email already registered", http.StatusBadRequest)
	// ErrAccountDisabled is returned when a deactivated user authenticates.
	ErrAccountDisabled = apperrors.New("ACCOUNT_DISABLED", "Account is disabled", http.StatusUnauthorized)
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil {
		return pgErr.Code == "23505"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil {
		return myErr.Number == 1062
	}

	// sqlite reports "UNIQUE constraint failed: table.column".
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
