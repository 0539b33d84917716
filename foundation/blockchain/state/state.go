// Package state is the core API for the ledger and implements all the
// business rules and processing. It owns the chain, the mempool and the
// current difficulty as a single guarded unit.
package state

import (
	"sync"

	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/genesis"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/mempool"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/peer"
)

// EventHandler defines a function that is called when events occur in the
// processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for mining and transaction sharing.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
	SignalShareTx(tx database.SignedTx)
}

// NetworkPort interface represents the behavior required to be implemented
// by any package providing peer communication. The ledger core carries no
// transport semantics of its own and runs correctly with no port at all.
type NetworkPort interface {
	SendBlockToPeer(pr peer.Peer, block database.Block) error
	SendTxToPeer(pr peer.Peer, tx database.SignedTx) error
	QueryPeerStatus(pr peer.Peer) (peer.PeerStatus, error)
	QueryPeerMempool(pr peer.Peer) ([]database.SignedTx, error)
	QueryPeerBlocks(pr peer.Peer, from uint64) ([]database.Block, error)
}

// =============================================================================

// Config represents the configuration required to start the ledger node.
type Config struct {
	BeneficiaryID database.AccountID
	Host          string
	Genesis       genesis.Genesis
	Storage       database.Storage
	KnownPeers    *peer.PeerSet
	Net           NetworkPort
	EvHandler     EventHandler
}

// State manages the blockchain database, the mempool and the difficulty.
type State struct {
	mu sync.RWMutex

	beneficiaryID database.AccountID
	host          string
	evHandler     EventHandler
	difficulty    uint32

	knownPeers *peer.PeerSet
	genesis    genesis.Genesis
	mempool    *mempool.Mempool
	db         *database.Database
	net        NetworkPort

	Worker Worker
}

// New constructs a new ledger state for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Access the database for the chain, replaying any persisted blocks.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	// Re-validate the loaded chain against the consensus rules. The
	// difficulty schedule is recomputed deterministically, never trusted
	// from the persisted blocks.
	if _, err := validateChain(cfg.Genesis, db.Chain(), ev); err != nil {
		return nil, err
	}

	// Construct a mempool with the default FIFO selection strategy.
	mpool, err := mempool.New(cfg.Genesis.PoolMaxSize)
	if err != nil {
		return nil, err
	}

	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		host:          cfg.Host,
		evHandler:     ev,
		difficulty:    nextDifficulty(cfg.Genesis, db.Chain()),

		knownPeers: cfg.KnownPeers,
		genesis:    cfg.Genesis,
		mempool:    mpool,
		db:         db,
		net:        cfg.Net,
	}

	// The Worker is not set here. The call to worker.Run will assign
	// itself and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
