package anthropic

// BuildCachedSystemBlocks constructs system content blocks with a cache
// breakpoint. Sequential calls that share the same system text hit the
// cache after the first one.
func BuildCachedSystemBlocks(text, ttl string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: ttl,
			},
		},
	}
}
