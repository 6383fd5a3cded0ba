package attestation

import (
	"fmt"
	"time"

	"github.com/flarepay/paylink/types"
)

// anchoring describes how (and how far) a proof is bound to the chain.
type anchoring struct {
	Protocol    string
	Network     string
	MerkleProof interface{}
	RoundID     interface{}
	ExplorerURL string
	Status      types.VerificationStatus
}

// buildPacs008 assembles the pacs.008 credit-transfer document for a confirmed
// transfer. The structure follows the FIToFICustomerCreditTransfer layout:
// group header with settlement totals, one credit transfer transaction, and a
// non-standard anchoring block tying the document to the on-chain transfer.
func buildPacs008(meta types.TransferMetadata, anchor anchoring) types.ExtraData {
	created := meta.ConfirmedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	messageID := fmt.Sprintf("FLARE%d", time.Now().UnixMilli())

	currency := meta.TokenSymbol
	if currency == "" {
		currency = "USDT0"
	}

	return types.ExtraData{
		"groupHeader": map[string]interface{}{
			"messageIdentification": messageID,
			"creationDateTime":      created.Format(time.RFC3339),
			"numberOfTransactions":  "1",
			"totalInterbankSettlementAmount": map[string]interface{}{
				"value":    meta.Amount,
				"currency": currency,
			},
			"interbankSettlementDate": created.Format("2006-01-02"),
			"settlementInformation": map[string]interface{}{
				"settlementMethod": "INDA",
				"settlementAccount": map[string]interface{}{
					"identification": meta.TxRef,
				},
			},
			"instructingAgent": map[string]interface{}{
				"financialInstitutionIdentification": map[string]interface{}{
					"bicfi": "FLRXUS00XXX",
					"name":  "Flare Network",
				},
			},
		},
		"creditTransferTransaction": map[string]interface{}{
			"paymentIdentification": map[string]interface{}{
				"endToEndIdentification": meta.TxRef,
				"transactionIdentification": fmt.Sprintf("%s-%d",
					meta.Network, meta.BlockRef),
			},
			"interbankSettlementAmount": map[string]interface{}{
				"value":    meta.Amount,
				"currency": currency,
			},
			"chargeBearer": "SLEV",
			"debtor": map[string]interface{}{
				"name": meta.Sender,
			},
			"creditor": map[string]interface{}{
				"name": meta.Recipient,
			},
			"remittanceInformation": map[string]interface{}{
				"unstructured": meta.Memo,
			},
		},
		"fdcAnchoring": map[string]interface{}{
			"protocol":           anchor.Protocol,
			"network":            anchor.Network,
			"attestationType":    "EVMTransaction",
			"verificationStatus": string(anchor.Status),
			"explorerUrl":        anchor.ExplorerURL,
			"merkleProof":        anchor.MerkleProof,
			"roundId":            anchor.RoundID,
			"blockRef":           meta.BlockRef,
		},
	}
}
