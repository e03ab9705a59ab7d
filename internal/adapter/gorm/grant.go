package gorm

type Grant struct {
	ID uint `gorm:"primaryKey"`

	// Unix nanoseconds, sortable regardless of the driver time encoding
	CreatedAt int64 `gorm:"autoCreateTime:nano;index"`

	Subject   string `gorm:"index:grant_index,unique"`
	GateKey   string `gorm:"index:grant_index,unique"`
	PeriodKey string `gorm:"index:grant_index,unique"`
}
