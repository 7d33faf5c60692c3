package cloud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnect_RequiresProject(t *testing.T) {
	_, err := Connect(context.Background(), Options{}, nil)
	assert.Error(t, err)
}

func TestConnect_RequiresCredentials(t *testing.T) {
	_, err := Connect(context.Background(), Options{ProjectID: "p"}, nil)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestServicesCloseNil(t *testing.T) {
	var s *Services
	assert.NoError(t, s.Close())
	assert.NoError(t, (&Services{}).Close())
}
