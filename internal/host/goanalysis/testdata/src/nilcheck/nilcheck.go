package nilcheck

func present(x *int) bool {
	return !(x == nil) // want `negated nil check on 'x'; write x != nil`
}

func absent(x *int) bool {
	return !(x != nil)
}
