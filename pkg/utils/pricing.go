package utils

// gstRate is the GST applied on top of the raw MCX price for retail quotes.
const gstRate = 0.03

// AddGST returns the price with 3% GST applied.
func AddGST(price float64) float64 {
	return price * (1 + gstRate)
}

// PurityPrice derives a lower-carat price from the 24-carat price using a
// purity ratio (e.g., 22/24 for 22K, or a configured dealer ratio).
func PurityPrice(price24Carat, ratio float64) float64 {
	return price24Carat * ratio
}
