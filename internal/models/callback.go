package models

import "fmt"

// StkCallback is the envelope Daraja posts to the callback URL after an
// STK push resolves. Metadata item values are heterogeneous (strings and
// numbers), so they are decoded as interface{}.
type StkCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string           `json:"MerchantRequestID"`
			CheckoutRequestID string           `json:"CheckoutRequestID"`
			ResultCode        int              `json:"ResultCode"`
			ResultDesc        string           `json:"ResultDesc"`
			CallbackMetadata  CallbackMetadata `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

type MetadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

func (c *StkCallback) MerchantRequestID() string { return c.Body.StkCallback.MerchantRequestID }
func (c *StkCallback) CheckoutRequestID() string { return c.Body.StkCallback.CheckoutRequestID }
func (c *StkCallback) ResultCode() int           { return c.Body.StkCallback.ResultCode }
func (c *StkCallback) ResultDesc() string        { return c.Body.StkCallback.ResultDesc }

func (c *StkCallback) metadataValue(name string) (interface{}, bool) {
	for _, item := range c.Body.StkCallback.CallbackMetadata.Item {
		if item.Name == name {
			return item.Value, true
		}
	}
	return nil, false
}

// ReceiptNumber returns the MpesaReceiptNumber metadata field, empty when
// the callback carried no metadata (failure callbacks do not).
func (c *StkCallback) ReceiptNumber() string {
	v, ok := c.metadataValue("MpesaReceiptNumber")
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
