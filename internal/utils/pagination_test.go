package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
)

func contextWithQuery(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return c
}

func TestGetPaginationParams(t *testing.T) {
	tests := []struct {
		query   string
		want    PaginationParams
		wantErr string
	}{
		{"", PaginationParams{Page: 1, Limit: 10, Offset: 0}, ""},
		{"page=3&pageSize=20", PaginationParams{Page: 3, Limit: 20, Offset: 40}, ""},
		{"page=0", PaginationParams{}, "page"},
		{"pageSize=0", PaginationParams{}, "pageSize"},
		{"pageSize=-1", PaginationParams{}, "pageSize"},
		{"pageSize=101", PaginationParams{}, "pageSize"},
		{"page=abc", PaginationParams{}, "page"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := GetPaginationParams(contextWithQuery(tt.query), "pageSize")
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			var vErr *apierrors.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantErr, vErr.Field)
		})
	}
}
