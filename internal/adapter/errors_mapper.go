package adapter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

var (
	ErrUnauthorized = errors.New("client unauthorized")
	ErrConflict     = errors.New("conflicting state on server")
	ErrNotFound     = errors.New("not found on server")
)

func mapHTTPError(resp *resty.Response) error {
	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, resp.String())
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, resp.String())
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, resp.String())
	default:
		return fmt.Errorf("server answered %d: %s", resp.StatusCode(), resp.String())
	}
}
