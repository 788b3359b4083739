package wait

import (
	"net"
	"strconv"
	"time"
)

// dialTimeout bounds a single TCP probe so a black-holed address does not
// eat the whole poll interval budget.
const dialTimeout = time.Second

// TCPPortOpen returns a Condition that reports whether a TCP connection to
// host:port can be established.
func TCPPortOpen(host string, port int) Condition {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	return func() bool {
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}
