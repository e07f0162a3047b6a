package testbackend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type detailResponse struct {
	Detail any `json:"detail"`
}

type fieldIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// detailErrorHandler renders every error in the {"detail": ...} envelope.
func detailErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var detail any = "Internal Server Error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			detail = m
		case []fieldIssue:
			detail = m
		default:
			detail = fmt.Sprint(m)
		}
	}
	_ = c.JSON(code, detailResponse{Detail: detail})
}

func unprocessable(field, msg string) error {
	return echo.NewHTTPError(http.StatusUnprocessableEntity, []fieldIssue{{
		Loc: []string{"body", field}, Msg: msg, Type: "value_error",
	}})
}

// validationFailure mirrors the list-shaped detail of a 422 response.
func validationFailure(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return unprocessable("body", err.Error())
	}
	issues := make([]fieldIssue, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		issues = append(issues, fieldIssue{
			Loc:  []string{"body", field},
			Msg:  fmt.Sprintf("%s failed %s", field, fe.Tag()),
			Type: "value_error",
		})
	}
	return echo.NewHTTPError(http.StatusUnprocessableEntity, issues)
}
