package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fulcrumchain/fulcrum/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

// balanceCmd represents the balance command.
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the confirmed balance for the wallet account",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	accountID := database.PublicKeyToAccountID(privateKey.PublicKey)
	fmt.Println("For Account:", accountID)

	resp, err := http.Get(fmt.Sprintf("%s/v1/accounts/list/%s", url, accountID))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var result struct {
		LatestBlock string `json:"latest_block"`
		Uncommitted int    `json:"uncommitted"`
		Accounts    []struct {
			Account string `json:"account"`
			Name    string `json:"name"`
			Balance uint64 `json:"balance"`
		} `json:"accounts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatal(err)
	}

	if len(result.Accounts) > 0 {
		fmt.Println(result.Accounts[0].Balance)
	}
}
