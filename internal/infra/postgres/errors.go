package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"pair-quiz-service/internal/domain"

	"github.com/uptrace/bun/driver/pgdriver"
)

const uniqueViolation = "23505"

// translate maps driver errors onto the store contract.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrConstraintViolation)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}

// found turns sql.ErrNoRows into a (false, nil) lookup result.
func found(op string, err error) (bool, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// inserted reports ErrConstraintViolation when an ON CONFLICT DO NOTHING insert wrote nothing.
func inserted(op string, res sql.Result, err error) error {
	if err != nil {
		return translate(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrConstraintViolation)
	}
	return nil
}
