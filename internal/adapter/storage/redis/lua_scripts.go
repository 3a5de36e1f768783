package redis

import "github.com/redis/go-redis/v9"

// recordDecisionScript bumps the counters of one endpoint atomically.
//
// KEYS[1]: endpoint hash (ex: "api429:endpoint:3")
// ARGV[1]: outcome field, "accepted" or "rejected"
// ARGV[2]: "1" when the rejection tripped the limit
// ARGV[3]: TTL in seconds, 0 disables expiry
//
// Returns: [accepted, rejected, tripped]
var recordDecisionScript = redis.NewScript(`
local key = KEYS[1]
local field = ARGV[1]
local tripped = ARGV[2] == "1"
local ttl = tonumber(ARGV[3])

redis.call('HINCRBY', key, field, 1)
if tripped then
    redis.call('HINCRBY', key, 'tripped', 1)
end

if ttl > 0 then
    redis.call('EXPIRE', key, ttl)
end

local values = redis.call('HMGET', key, 'accepted', 'rejected', 'tripped')
return {tonumber(values[1]) or 0, tonumber(values[2]) or 0, tonumber(values[3]) or 0}
`)
