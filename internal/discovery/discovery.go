// Package discovery locates a GX device on the local /24 when no host is
// configured yet. Hosts that historically carry infrastructure (gateways,
// NAS boxes, the usual static assignments) are probed first, so a typical
// site resolves in a couple of probes instead of a full sweep.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/hbraak/solar-display/internal/logger"
)

// ErrNotFound means the whole subnet was swept without an answer.
var ErrNotFound = errors.New("no device found on subnet")

// priorityOctets are tried before the rest of the subnet.
var priorityOctets = []int{1, 65, 100, 200, 2, 10, 50, 150, 254}

const defaultParallelism = 4

// routeProbeAddr is only used to learn the outbound interface; no packet is
// ever sent to it.
const routeProbeAddr = "8.8.8.8:80"

// ProbeFunc reports whether a GX device answers at host within its own
// timeout. It must be safe for concurrent use.
type ProbeFunc func(ctx context.Context, host string) bool

// Scanner sweeps the local subnet with a bounded number of probes in flight.
type Scanner struct {
	probe    ProbeFunc
	log      *logger.Logger
	parallel int
	progress func(host string)
	subnet   string // "192.168.1" when overridden, else autodetected
}

// Option adjusts a Scanner.
type Option func(*Scanner)

// WithParallelism bounds how many probes run at once.
func WithParallelism(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.parallel = n
		}
	}
}

// WithProgress registers a callback invoked, in scan order, for every host
// about to be probed. It is called from a single goroutine.
func WithProgress(fn func(host string)) Option {
	return func(s *Scanner) { s.progress = fn }
}

// WithSubnet pins the swept subnet ("192.168.1") instead of deriving it from
// the default route.
func WithSubnet(base string) Option {
	return func(s *Scanner) { s.subnet = base }
}

func New(probe ProbeFunc, log *logger.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		probe:    probe,
		log:      log,
		parallel: defaultParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Find sweeps the subnet and returns the first responding host. The sweep
// stops as soon as one probe answers.
func (s *Scanner) Find(ctx context.Context) (string, error) {
	base, self, err := s.resolveSubnet()
	if err != nil {
		return "", fmt.Errorf("determine local subnet: %w", err)
	}
	s.log.Infow("scanning for device", "subnet", base+".0/24")

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hosts := make(chan string)
	found := make(chan string, 1)

	var wg sync.WaitGroup
	for i := 0; i < s.parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for host := range hosts {
				if ctx.Err() != nil {
					return
				}
				if s.probe(ctx, host) {
					select {
					case found <- host:
					default:
					}
					cancel()
					return
				}
			}
		}()
	}

	go func() {
		defer close(hosts)
		for _, octet := range scanOrder(self) {
			host := fmt.Sprintf("%s.%d", base, octet)
			if s.progress != nil {
				s.progress(host)
			}
			select {
			case hosts <- host:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(found)
	}()

	host, ok := <-found
	if !ok {
		if err := parent.Err(); err != nil {
			return "", err
		}
		return "", ErrNotFound
	}
	s.log.Infow("device found", "host", host)
	return host, nil
}

// scanOrder lists the last octets to sweep: priority hosts first, then the
// remainder of the /24, never our own address.
func scanOrder(self int) []int {
	seen := map[int]bool{self: true}
	order := make([]int, 0, 254)
	for _, o := range priorityOctets {
		if !seen[o] {
			order = append(order, o)
			seen[o] = true
		}
	}
	for o := 1; o <= 254; o++ {
		if !seen[o] {
			order = append(order, o)
			seen[o] = true
		}
	}
	return order
}

// resolveSubnet learns the /24 the box lives in from its default route.
func (s *Scanner) resolveSubnet() (base string, self int, err error) {
	if s.subnet != "" {
		return s.subnet, 0, nil
	}
	conn, err := net.Dial("udp", routeProbeAddr)
	if err != nil {
		return "", 0, err
	}
	defer conn.Close()

	local := conn.LocalAddr().(*net.UDPAddr).IP.To4()
	if local == nil {
		return "", 0, errors.New("no local IPv4 address")
	}
	return fmt.Sprintf("%d.%d.%d", local[0], local[1], local[2]), int(local[3]), nil
}
