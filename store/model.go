package store

type EvaluatedOpportunity struct {
	Id             uint64 `gorm:"primaryKey;type:bigint(20);not null"`
	Vault          string `gorm:"type:varchar(48);not null"`
	PoolBuy        string `gorm:"type:varchar(48);not null"`
	PoolSell       string `gorm:"type:varchar(48);not null"`
	AmountIn       uint64 `gorm:"type:bigint(20);not null"`
	ExpectedOut    uint64 `gorm:"type:bigint(20);not null"`
	ExpectedProfit uint64 `gorm:"type:bigint(20);not null"`
	Slot           uint64 `gorm:"type:bigint(20);not null"`
}

type CommittedTradeLeg struct {
	Program          string `gorm:"type:varchar(48);not null"`
	Pool             string `gorm:"type:varchar(48);not null"`
	TokenIn          string `gorm:"type:varchar(48);not null"`
	AmountIn         uint64 `gorm:"type:bigint(20);not null"`
	TokenOut         string `gorm:"type:varchar(48);not null"`
	AmountOut        uint64 `gorm:"type:bigint(20);not null"`
	CommittedTradeId uint64 `gorm:"type:bigint(20);not null"`
}

type CommittedTrade struct {
	Id                 uint64               `gorm:"primaryKey;type:bigint(20);not null"`
	Vault              string               `gorm:"type:varchar(48);not null"`
	AmountIn           uint64               `gorm:"type:bigint(20);not null"`
	AmountOut          uint64               `gorm:"type:bigint(20);not null"`
	Profit             uint64               `gorm:"type:bigint(20);not null"`
	ComputeUsed        uint64               `gorm:"type:bigint(20);not null"`
	Slot               uint64               `gorm:"type:bigint(20);not null"`
	CommittedTradeLegs []*CommittedTradeLeg `gorm:"foreignKey:CommittedTradeId;references:Id"`
}

type FailedAttempt struct {
	Id     uint64 `gorm:"primaryKey;type:bigint(20);not null"`
	Vault  string `gorm:"type:varchar(48);not null"`
	PoolA  string `gorm:"type:varchar(48);not null"`
	PoolB  string `gorm:"type:varchar(48);not null"`
	Reason string `gorm:"type:varchar(256);not null"`
	Slot   uint64 `gorm:"type:bigint(20);not null"`
}
