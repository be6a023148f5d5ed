package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gabrielantonyxaviour/franky-hedera-sub000/src/models"
)

// NFTItem is one owned NFT in the prepared summary.
type NFTItem struct {
	Name       string `json:"name"`
	TokenID    string `json:"tokenId"`
	Collection string `json:"collection"`
	Schema     string `json:"schema"`
	ChainID    string `json:"chainId"`
	ImageURL   string `json:"imageUrl"`
	Provider   string `json:"provider"`
}

// NFTOwnershipData is the prepared ownership summary. NFTs holds at most 10
// entries; NFTCount is the full count.
type NFTOwnershipData struct {
	Address  string    `json:"address"`
	Network  string    `json:"network"`
	NFTCount int       `json:"nftCount"`
	NFTs     []NFTItem `json:"nfts"`
}

func newNFTTool(client *OneInch) *Descriptor {
	return &Descriptor{
		Schema: models.ToolSchema{
			Name:        NameNFT,
			Description: "Fetches the NFTs owned by a specific address on a blockchain network. Use when the user asks about NFT ownership, digital collectibles, or tokens owned by a blockchain address.",
			Parameters: models.Parameters{
				Type: "object",
				Properties: map[string]models.Property{
					"address": {
						Type:        "string",
						Description: "The blockchain address to check (e.g., 0x1234...)",
					},
					"network": {
						Type:        "string",
						Description: "The blockchain network to check (e.g., ethereum, polygon, avalanche, binance, arbitrum, optimism, base, fantom, aurora)",
					},
				},
				Required: []string{"address"},
			},
		},
		Run: func(ctx context.Context, args Args) Outcome {
			address := args.Address()
			network := args.Network()

			if !IsAddress(address) {
				return errorOutcome(NameNFT, args, fmt.Sprintf(
					"Invalid Ethereum address format: %s. Address should be a 42-character hexadecimal string starting with 0x.", address))
			}

			chainID, name, ok := ChainID(NetworkIDs, network)
			if !ok {
				return errorOutcome(NameNFT, args, fmt.Sprintf(
					"Unsupported network: %s. Supported networks are: %s", network, SupportedNetworks(NetworkIDs)))
			}

			raw, err := client.NFTsByAddress(ctx, address, chainID)
			if err != nil {
				return errorOutcome(NameNFT, args, fmt.Sprintf(
					"Failed to fetch NFT ownership for %s on %s: %v", address, name, err))
			}
			if len(raw.Assets) == 0 {
				return emptyOutcome(NameNFT, args, "No NFTs found for this address on this network.")
			}

			limit := len(raw.Assets)
			if limit > 10 {
				limit = 10
			}
			nfts := make([]NFTItem, 0, limit)
			for _, asset := range raw.Assets[:limit] {
				item := NFTItem{
					Name:       orDefault(asset.Name, "Unnamed NFT"),
					TokenID:    orDefault(asset.TokenID, "Unknown ID"),
					Collection: "Unknown Collection",
					Schema:     "Unknown Schema",
					ChainID:    chainID,
					ImageURL:   orDefault(asset.ImageURL, "No image available"),
					Provider:   orDefault(asset.Provider, "Unknown Provider"),
				}
				if asset.AssetContract != nil {
					item.Collection = orDefault(asset.AssetContract.Address, item.Collection)
					item.Schema = orDefault(asset.AssetContract.SchemaName, item.Schema)
				}
				if asset.ChainID != 0 {
					item.ChainID = strconv.FormatInt(asset.ChainID, 10)
				}
				nfts = append(nfts, item)
			}

			return dataOutcome(NameNFT, args, NFTOwnershipData{
				Address:  address,
				Network:  name,
				NFTCount: len(raw.Assets),
				NFTs:     nfts,
			})
		},
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
