package model

// Commands accepted by the grouporder service. Per-field syntactic checks
// happen in the HTTP layer; semantic validation lives on the aggregate.

type CreateGroupOrderCommand struct {
	CreatedBy       string
	CreatorName     string
	CreatorAvatar   string
	ChefID          string
	KitchenName     string
	Title           string
	InitialBudget   int64
	DeliveryAddress *DeliveryAddress
	DeliveryTime    string
}

type JoinCommand struct {
	ShareToken   string
	UserID       string
	UserName     string
	AvatarURL    string
	Revision     int64
	Contribution int64
	OrderItems   []OrderItem
}

type ContributeCommand struct {
	GroupOrderID string
	UserID       string
	Revision     int64
	Amount       int64
}

type SetItemsCommand struct {
	GroupOrderID string
	UserID       string
	Revision     int64
	OrderItems   []OrderItem
}

type SetReadyCommand struct {
	GroupOrderID string
	UserID       string
	Revision     int64
	Ready        bool
}

type AdvancePhaseCommand struct {
	GroupOrderID string
	UserID       string
	Revision     int64
}

type CloseCommand struct {
	GroupOrderID string
	UserID       string
	Revision     int64
}

type CancelCommand struct {
	GroupOrderID string
	UserID       string
	Revision     int64
}
