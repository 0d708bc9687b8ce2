package integrationtests

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/darwinzer0/datahub-learn/celo"
	"github.com/darwinzer0/datahub-learn/internal/stack"
	"github.com/darwinzer0/datahub-learn/service"
)

//
// The in-memory simulated chain from internal/stack stands in for an
// Alfajores node, a background miner commits blocks so that submitted
// transactions become includable while the submitter polls for receipts.
//

const testPort = 8084

type svcStack struct {
	backend   *stack.BlockchainBackend
	submitter *celo.Submitter
	service   *service.Service
}

func makeService(t testing.TB) *svcStack {

	bk, err := stack.NewBackend()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = bk.Close() })

	stopMiner := bk.StartMiner(25 * time.Millisecond)
	t.Cleanup(stopMiner)

	l, err := service.NewLogger("error", "plain") // change to 'info' or 'debug' to see the service logs
	if err != nil {
		t.Fatal(err)
	}

	submitter := celo.NewSubmitter(bk.Client(), bk.BankAccount.Identity, l,
		celo.WithPollInterval(25*time.Millisecond),
		celo.WithWaitTimeout(10*time.Second),
	)

	svc := service.New(testPort, l, bk.Client(), submitter, nil)

	svc.Start()
	t.Cleanup(func() { svc.Stop(os.Kill) })
	time.Sleep(10 * time.Millisecond)

	return &svcStack{
		backend:   bk,
		submitter: submitter,
		service:   svc,
	}
}

func serverURL(path string) string {
	return fmt.Sprintf("http://0.0.0.0:%d%s", testPort, path)
}
