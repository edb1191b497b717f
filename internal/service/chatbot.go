package service

import "strings"

type cannedReply struct {
	keywords []string
	reply    string
}

// Replies are checked in order; the first group with a keyword contained
// in the message wins.
var cannedReplies = []cannedReply{
	{[]string{"sell", "selling"}, `To sell items on EcoFinds, you need to create an account and then click the "Sell" button. You can list your eco-friendly items with descriptions, prices, and photos.`},
	{[]string{"buy", "buying"}, "You can browse products by category or search for specific items. Click on any product to view details and contact the seller."},
	{[]string{"price", "cost"}, "Prices are set by individual sellers. You can negotiate prices by messaging the seller directly on the product page."},
	{[]string{"shipping", "delivery"}, "Shipping arrangements are made directly between buyers and sellers. Contact the seller to discuss delivery options."},
	{[]string{"return", "refund"}, "Return policies vary by seller. Please contact the seller directly to discuss return or refund options."},
	{[]string{"eco", "environment"}, "EcoFinds promotes sustainable living by connecting people to buy and sell eco-friendly products, reducing waste and supporting the circular economy."},
	{[]string{"help", "support"}, "I can help with questions about selling, buying, pricing, shipping, returns, and our eco-friendly mission. What would you like to know?"},
}

const defaultReply = "I can help you with questions about selling, buying, pricing, shipping, returns, and EcoFinds' eco-friendly mission. Please ask me something specific!"

// Chatbot answers a customer-service question with a canned reply.
func Chatbot(message string) (string, error) {
	if message == "" {
		return "", invalidArg("Message is required")
	}
	lower := strings.ToLower(message)
	for _, c := range cannedReplies {
		for _, k := range c.keywords {
			if strings.Contains(lower, k) {
				return c.reply, nil
			}
		}
	}
	return defaultReply, nil
}
