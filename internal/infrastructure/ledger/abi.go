package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const propertyMarketABI = `[
 {"type":"function","name":"listProperty","stateMutability":"nonpayable","inputs":[{"name":"price","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"changePrice","stateMutability":"nonpayable","inputs":[{"name":"propertyId","type":"uint256"},{"name":"newPrice","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"buyProperty","stateMutability":"payable","inputs":[{"name":"propertyId","type":"uint256"},{"name":"price","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"startAuction","stateMutability":"nonpayable","inputs":[{"name":"propertyId","type":"uint256"},{"name":"startingPrice","type":"uint256"},{"name":"duration","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"bid","stateMutability":"payable","inputs":[{"name":"propertyId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"stopAuction","stateMutability":"nonpayable","inputs":[{"name":"propertyId","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"properties","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"id","type":"uint256"},{"name":"owner","type":"address"},{"name":"price","type":"uint256"},{"name":"isListed","type":"bool"},{"name":"isAuctionStarted","type":"bool"},{"name":"auctionEndTime","type":"uint256"}]},
 {"type":"function","name":"highestBid","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"highestBidder","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"getPropertyCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"event","name":"PropertyListed","anonymous":false,"inputs":[{"name":"propertyId","type":"uint256","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"price","type":"uint256","indexed":false}]},
 {"type":"event","name":"PriceChanged","anonymous":false,"inputs":[{"name":"propertyId","type":"uint256","indexed":true},{"name":"newPrice","type":"uint256","indexed":false}]},
 {"type":"event","name":"PropertySold","anonymous":false,"inputs":[{"name":"propertyId","type":"uint256","indexed":true},{"name":"buyer","type":"address","indexed":true},{"name":"price","type":"uint256","indexed":false}]},
 {"type":"event","name":"PaymentReceived","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
 {"type":"event","name":"AuctionStarted","anonymous":false,"inputs":[{"name":"propertyId","type":"uint256","indexed":true},{"name":"startingPrice","type":"uint256","indexed":false},{"name":"endTime","type":"uint256","indexed":false}]},
 {"type":"event","name":"BidPlaced","anonymous":false,"inputs":[{"name":"propertyId","type":"uint256","indexed":true},{"name":"bidder","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
 {"type":"event","name":"AuctionEnded","anonymous":false,"inputs":[{"name":"propertyId","type":"uint256","indexed":true},{"name":"winner","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]}
]`

// MarketABI is the parsed PropertyMarket interface.
var MarketABI = mustParseABI(propertyMarketABI)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("ledger: parse contract ABI: " + err.Error())
	}
	return parsed
}
