package clients

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/stakewatch/internal/domain"
	"github.com/vadiminshakov/stakewatch/pkg/retrier"
)

// AlchemyMainnetURL builds the Alchemy mainnet endpoint for apiKey.
func AlchemyMainnetURL(apiKey string) string {
	return fmt.Sprintf("https://eth-mainnet.alchemyapi.io/v2/%s", apiKey)
}

type chainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// EthereumClient a JSON-RPC connection that answered a chain id probe.
type EthereumClient struct {
	*ethclient.Client
	chainID *big.Int
}

// DialEthereum connects to rawURL and checks the endpoint answers eth_chainId.
// The probe is retried up to retries times; failure maps to domain.ErrLedgerUnreachable.
func DialEthereum(ctx context.Context, rawURL string, retries int, timeout time.Duration, logger *zap.Logger) (*EthereumClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrLedgerUnreachable, "dial %s: %v", RedactURL(rawURL), err)
	}

	chainID, err := probe(ctx, c, retries, timeout, logger.With(zap.String("endpoint", RedactURL(rawURL))))
	if err != nil {
		c.Close()
		return nil, err
	}

	logger.Info("connected to ethereum", zap.String("chain_id", chainID.String()))

	return &EthereumClient{Client: c, chainID: chainID}, nil
}

// ChainIDValue returns the chain id reported during the connectivity probe.
func (c *EthereumClient) ChainIDValue() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func probe(ctx context.Context, c chainIDReader, retries int, timeout time.Duration, logger *zap.Logger) (*big.Int, error) {
	if retries < 0 {
		retries = 0
	}

	r := retrier.New(
		retrier.WithMaxRetries(retries),
		retrier.WithInitialInterval(500*time.Millisecond),
		retrier.WithMaxInterval(5*time.Second),
		retrier.WithRetryIf(func(err error) bool {
			return ctx.Err() == nil
		}),
		retrier.WithOnRetry(func(attempt int, err error) {
			logger.Warn("ethereum endpoint probe failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		}),
	)

	chainID, err := retrier.DoWithData(r, ctx, func(ctx context.Context) (*big.Int, error) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return c.ChainID(callCtx)
	})
	if err != nil {
		return nil, errors.Wrapf(domain.ErrLedgerUnreachable, "failed to connect to the ethereum network: %v", err)
	}
	if chainID == nil {
		return nil, errors.Wrap(domain.ErrLedgerUnreachable, "endpoint returned no chain id")
	}

	return chainID, nil
}

// RedactURL hides the path of rpc urls, which for hosted providers carries the api key.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "<invalid url>"
	}
	if u.Path == "" || u.Path == "/" {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Host + "/***"
}
