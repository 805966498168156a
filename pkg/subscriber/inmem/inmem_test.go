package inmem

import (
	"testing"

	"github.com/igolaizola/emacross/pkg/subscriber/subscribertest"
)

func TestStore(t *testing.T) {
	subscribertest.Run(t, New())
}
