package matches

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidcarrera/tradebinder-backend/pkg/db/models"
	dbtypes "github.com/davidcarrera/tradebinder-backend/pkg/db/types"
	"github.com/davidcarrera/tradebinder-backend/pkg/enums"
	pkgerrors "github.com/davidcarrera/tradebinder-backend/pkg/errors"
)

const defaultNameQueryChunk = 30

type listingSource interface {
	FindByNames(ctx context.Context, kind enums.ListingKind, names []string, excludeOwner uuid.UUID) ([]models.PublicListing, error)
}

// Match is one discovered trade opportunity, expressed from the searching
// user's point of view. MyCards is what I can give, OtherCards what the
// counterpart can give me.
type Match struct {
	Key             string            `json:"key"`
	OtherUserID     uuid.UUID         `json:"otherUserId"`
	OtherUsername   string            `json:"otherUsername"`
	OtherLocation   *string           `json:"otherLocation,omitempty"`
	Type            enums.MatchType   `json:"type"`
	MyCards         dbtypes.CardLines `json:"myCards"`
	OtherCards      dbtypes.CardLines `json:"otherCards"`
	MyTotalValue    decimal.Decimal   `json:"myTotalValue"`
	TheirTotalValue decimal.Decimal   `json:"theirTotalValue"`
	ValueDifference decimal.Decimal   `json:"valueDifference"`
	Compatibility   int               `json:"compatibility"`
}

// Finder discovers matches between one user's cards/wants and everyone
// else's public listings.
type Finder struct {
	listings  listingSource
	chunkSize int
}

// NewFinder builds a match finder. chunkSize caps the number of names per
// listing query; zero or negative falls back to the default.
func NewFinder(listings listingSource, chunkSize int) (*Finder, error) {
	if listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing source is required")
	}
	if chunkSize <= 0 {
		chunkSize = defaultNameQueryChunk
	}
	return &Finder{listings: listings, chunkSize: chunkSize}, nil
}

// Discover runs both query directions over the user's snapshot and merges
// per-counterpart results. Listings owned by the user are excluded at the
// query level.
func (f *Finder) Discover(ctx context.Context, userID uuid.UUID, myCards []models.CardInstance, myPrefs []models.Preference) ([]Match, error) {
	wantedNames := make([]string, 0, len(myPrefs))
	for _, pref := range myPrefs {
		wantedNames = append(wantedNames, pref.CardName)
	}
	// Name matching is case-insensitive end to end, and one name can cover
	// several printings in the collection.
	offeredByName := make(map[string][]models.CardInstance, len(myCards))
	offeredNames := make([]string, 0, len(myCards))
	for _, card := range myCards {
		key := strings.ToLower(card.Name)
		if _, seen := offeredByName[key]; !seen {
			offeredNames = append(offeredNames, card.Name)
		}
		offeredByName[key] = append(offeredByName[key], card)
	}

	// BUSCO: their card listings that satisfy my wants.
	theirCards, err := f.findChunked(ctx, enums.ListingKindCard, wantedNames, userID)
	if err != nil {
		return nil, err
	}
	// VENDO: their preference listings wanting my tradeable cards.
	theirWants, err := f.findChunked(ctx, enums.ListingKindPreference, offeredNames, userID)
	if err != nil {
		return nil, err
	}

	type pairing struct {
		owner      models.PublicListing
		myCards    dbtypes.CardLines
		otherCards dbtypes.CardLines
	}
	byCounterpart := make(map[uuid.UUID]*pairing)
	counterparts := make([]uuid.UUID, 0)

	pairingFor := func(listing models.PublicListing) *pairing {
		p, ok := byCounterpart[listing.OwnerUserID]
		if !ok {
			p = &pairing{owner: listing}
			byCounterpart[listing.OwnerUserID] = p
			counterparts = append(counterparts, listing.OwnerUserID)
		}
		return p
	}

	for _, listing := range theirCards {
		p := pairingFor(listing)
		p.otherCards = append(p.otherCards, listingLine(listing))
	}
	for _, listing := range theirWants {
		cards, ok := offeredByName[strings.ToLower(listing.CardName)]
		if !ok {
			continue
		}
		p := pairingFor(listing)
		for _, card := range cards {
			p.myCards = append(p.myCards, cardLine(card))
		}
	}

	results := make([]Match, 0, len(counterparts))
	seen := make(map[string]struct{})
	for _, counterpartID := range counterparts {
		p := byCounterpart[counterpartID]

		matchType := enums.MatchTypeBidirectional
		switch {
		case len(p.myCards) == 0 && len(p.otherCards) == 0:
			continue
		case len(p.myCards) == 0:
			matchType = enums.MatchTypeBusco
		case len(p.otherCards) == 0:
			matchType = enums.MatchTypeVendo
		}

		myTotal := p.myCards.TotalValue()
		theirTotal := p.otherCards.TotalValue()
		match := Match{
			Key:             matchKey(userID, counterpartID, p.myCards.Names(), p.otherCards.Names()),
			OtherUserID:     counterpartID,
			OtherUsername:   p.owner.OwnerUsername,
			OtherLocation:   p.owner.OwnerLocation,
			Type:            matchType,
			MyCards:         p.myCards,
			OtherCards:      p.otherCards,
			MyTotalValue:    myTotal,
			TheirTotalValue: theirTotal,
			ValueDifference: myTotal.Sub(theirTotal),
			Compatibility:   compatibility(matchType, myTotal, theirTotal),
		}
		if _, dup := seen[match.Key]; dup {
			continue
		}
		seen[match.Key] = struct{}{}
		results = append(results, match)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Compatibility != results[j].Compatibility {
			return results[i].Compatibility > results[j].Compatibility
		}
		return results[i].Key < results[j].Key
	})
	return results, nil
}

func (f *Finder) findChunked(ctx context.Context, kind enums.ListingKind, names []string, excludeOwner uuid.UUID) ([]models.PublicListing, error) {
	var all []models.PublicListing
	for start := 0; start < len(names); start += f.chunkSize {
		end := min(start+f.chunkSize, len(names))
		chunk, err := f.listings.FindByNames(ctx, kind, names[start:end], excludeOwner)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query listings by name")
		}
		all = append(all, chunk...)
	}
	return all, nil
}

func listingLine(listing models.PublicListing) dbtypes.CardLine {
	line := dbtypes.CardLine{
		Name:     listing.CardName,
		Quantity: listing.Quantity,
		Price:    decimal.Zero,
	}
	if listing.Edition != nil {
		line.Edition = *listing.Edition
	}
	if listing.Price != nil {
		line.Price = *listing.Price
	}
	return line
}

func cardLine(card models.CardInstance) dbtypes.CardLine {
	return dbtypes.CardLine{
		Name:     card.Name,
		Edition:  card.Edition,
		Quantity: card.Quantity,
		Price:    card.Price,
	}
}

// compatibility scores a match in [0, 100]. Bidirectional pairings start at
// 100, unidirectional at 60; lopsided value totals pull the score down by up
// to 50 points.
func compatibility(matchType enums.MatchType, myTotal, theirTotal decimal.Decimal) int {
	base := decimal.NewFromInt(60)
	if matchType == enums.MatchTypeBidirectional {
		base = decimal.NewFromInt(100)
	}

	denominator := decimal.Max(myTotal, theirTotal, decimal.NewFromInt(1))
	imbalance := myTotal.Sub(theirTotal).Abs().Div(denominator)
	score := base.Sub(imbalance.Mul(decimal.NewFromInt(50)))

	result := int(score.IntPart())
	if result < 0 {
		return 0
	}
	if result > 100 {
		return 100
	}
	return result
}

// matchKey identifies a match by the user pair plus the exact card-name sets
// on each side. The user pair is ordered so both participants derive the same
// key for the same logical match.
func matchKey(userA, userB uuid.UUID, sideA, sideB []string) string {
	first, second := userA.String(), userB.String()
	if second < first {
		first, second = second, first
		sideA, sideB = sideB, sideA
	}

	normalize := func(names []string) string {
		lowered := make([]string, 0, len(names))
		for _, name := range names {
			lowered = append(lowered, strings.ToLower(name))
		}
		sort.Strings(lowered)
		return strings.Join(lowered, ",")
	}

	sum := sha256.Sum256([]byte(first + "|" + second + "|" + normalize(sideA) + "|" + normalize(sideB)))
	return hex.EncodeToString(sum[:16])
}
