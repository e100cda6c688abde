package order

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

// NewOrderNumber builds a GAS-<time>-<random> candidate. Uniqueness is
// enforced by the orders.order_number constraint; callers retry on
// conflict.
func NewOrderNumber() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(ts) > 8 {
		ts = ts[len(ts)-8:]
	}
	return fmt.Sprintf("GAS-%s-%03d", ts, rand.Intn(900)+100)
}
