package state

import (
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/genesis"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy of the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of the full chain of blocks.
func (s *State) RetrieveChain() []database.Block {
	return s.db.Chain()
}

// RetrieveDifficulty returns the difficulty currently in force.
func (s *State) RetrieveDifficulty() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.difficulty
}

// RetrieveAccounts returns a copy of the database accounts.
func (s *State) RetrieveAccounts() map[database.AccountID]database.Account {
	return s.db.CopyAccounts()
}

// RetrieveMempool returns a copy of the mempool in admission order.
func (s *State) RetrieveMempool() []database.SignedTx {
	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// AddKnownPeer provides the ability to add a new peer to the known peer
// list and reports whether it was unknown.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	return s.knownPeers.Add(pr)
}
