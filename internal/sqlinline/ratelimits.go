package sqlinline

// QHitRateLimit applies one attempt for ($1 identifier, $2 action) at $3 now in a
// single statement. A new window ends at $4 and the action allows $5 attempts.
// Exactly one row is returned unless a concurrent insert raced this statement's
// snapshot, in which case the caller retries.
const QHitRateLimit = `--sql ef977bb3-043a-43f7-8b38-f60bf1116d64
with bumped as (
    update rate_limits
    set count = case when reset_at <= $3::timestamptz then 1 else count + 1 end,
        reset_at = case when reset_at <= $3::timestamptz then $4::timestamptz else reset_at end,
        updated_at = now()
    where identifier = $1::text
      and action = $2::text
      and (reset_at <= $3::timestamptz or count < $5::int)
    returning count, reset_at
),
inserted as (
    insert into rate_limits (identifier, action, count, reset_at, created_at, updated_at)
    select $1::text, $2::text, 1, $4::timestamptz, now(), now()
    where not exists (select 1 from bumped)
    on conflict (identifier, action) do nothing
    returning count, reset_at
)
select true as allowed, count, reset_at from bumped
union all
select true as allowed, count, reset_at from inserted
union all
select false as allowed, rl.count, rl.reset_at
from rate_limits rl
where rl.identifier = $1::text
  and rl.action = $2::text
  and not exists (select 1 from bumped)
  and not exists (select 1 from inserted)
limit 1;
`

const QSweepExpiredRateLimits = `--sql 322d5e4d-ce8a-4e2a-b31c-c77aea510729
delete from rate_limits
where reset_at <= $1::timestamptz;
`
