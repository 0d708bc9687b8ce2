package stack

import (
	"os"
	"testing"
	"time"

	"github.com/darwinzer0/datahub-learn/celo"
	"github.com/darwinzer0/datahub-learn/keys"
	"github.com/darwinzer0/datahub-learn/service"
)

// Well-known throwaway development key (ganache account #0).
const mockKeyHex = "4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

type SvcStack struct {
	Chain    *FakeChain
	Identity *keys.Identity
	Service  *service.Service
}

// MockService runs the service against an in-memory FakeChain, with fast
// receipt polling so tests complete quickly.
func MockService(t testing.TB, port int, logLevel string) *SvcStack {

	chain, err := NewFakeChain()
	if err != nil {
		t.Fatal(err)
	}

	id, err := keys.FromHex(mockKeyHex)
	if err != nil {
		t.Fatal(err)
	}

	l, err := service.NewLogger(logLevel, "plain") // change to 'info' or 'debug' to see the service logs
	if err != nil {
		t.Fatal(err)
	}

	submitter := celo.NewSubmitter(chain, id, l,
		celo.WithPollInterval(time.Millisecond),
		celo.WithWaitTimeout(time.Second),
	)

	svc := service.New(port, l, chain, submitter, nil)

	svc.Start()

	t.Cleanup(func() { svc.Stop(os.Kill) })

	return &SvcStack{
		Chain:    chain,
		Identity: id,
		Service:  svc,
	}
}
