package paging

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	r := Apply(items, Page{Limit: 2})
	assert.Equal(t, []int{1, 2}, r.Items)
	assert.Equal(t, 5, r.Total)
	assert.Equal(t, 2, r.NextOffset)

	r = Apply(items, Page{Limit: 2, Offset: 4})
	assert.Equal(t, []int{5}, r.Items)
	assert.Equal(t, 0, r.NextOffset)

	r = Apply(items, Page{Limit: 2, Offset: 10})
	assert.Empty(t, r.Items)
	assert.NotNil(t, r.Items)
}

func TestFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/x?limit=abc&offset=-3", nil)
	assert.Equal(t, Page{Limit: DefaultLimit, Offset: 0}, FromQuery(c))

	c.Request = httptest.NewRequest("GET", "/x?limit=10000&offset=20", nil)
	assert.Equal(t, Page{Limit: MaxLimit, Offset: 20}, FromQuery(c))
}
